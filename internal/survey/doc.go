// Package survey holds a galaxy redshift-survey catalog together with the
// cosmological and luminosity-function context the group finder needs.
//
// A Survey is built once from a Catalog. The luminosity-function
// normalisation (Integral) and the absolute-magnitude limit are computed at
// construction and never change afterwards; only the catalog columns may be
// extended via ConvertZIntoCZ, MakeMagColumn and AddPositionalInformation.
//
// Every galaxy is referenced by its integer id, 0..N-1 in catalog order.
package survey
