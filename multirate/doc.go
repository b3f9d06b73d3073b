// Package multirate implements the clock-domain passes: discovery,
// rate rediscovery from boundary rate-change nodes, specialization into
// upsample/downsample variants, support-node creation for downsample
// domains, rate validation (a rate change may cross exactly one domain
// level), master-node port rate assignment, and the effective
// sub-blocking length computation the blocking pass consumes.
package multirate
