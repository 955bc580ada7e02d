// Package submodel defines the submodel resource of the repository.
//
// A submodel is an opaque JSON document identified by its "id" field. The
// package provides:
//   - Parsing and validation of submodel documents
//   - The base64url codec used to address submodels in URL paths
//   - Content variants (full, metadata, value) and their projections
//   - Sentinel errors shared by stores, services and transports
package submodel
