// Package fof implements Friends-of-Friends galaxy group finding.
//
// ClassicFoF links galaxies whose line-of-sight velocity difference is
// within V0 and whose projected separation is below a dynamic linking
// length. The linking length starts at D0 at the survey's fiducial depth and
// grows with distance as fewer faint galaxies are detectable, following the
// Schechter luminosity function; it never exceeds DMax. Groups are grown by
// iterative closure and pruned back to DMax / VMax around their centroid on
// every pass, which stops chains of marginal links from growing without
// bound.
//
// A run assigns every galaxy to exactly one group. Seeds are drawn uniformly
// at random from the galaxies not yet assigned, using the caller's
// generator, so a fixed seed reproduces the same partition.
//
// Dependency rule: fof depends on survey and cosmo only. No SQL here.
package fof
