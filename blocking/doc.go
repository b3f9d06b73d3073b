// Package blocking implements the blocking and sub-blocking pass: the
// design is wrapped in a global blocking domain of factor B with
// BlockingInput/BlockingOutput boundary nodes at the master I/O, the
// interior is grouped into sub-blocking domains of factor b (honoring
// contexts that cannot be split, notably mux contexts and upsample
// clock domains), arc dimensions are expanded, and dimension changes
// adjacent to delays are deferred until after FIFO delay absorption.
package blocking
