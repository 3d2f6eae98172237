// Package config defines the settings shared by the masking binaries and
// provides helpers to load, validate and save them in YAML format.
//
// Settings can be overridden from the environment. The variables used by the
// original maintenance scripts (MONGODB_URI, MONGO_USER, MONGO_PASS,
// MONGODB_DATABASENAME) are honored, as is every key under the WA3FECTA_
// prefix, e.g. WA3FECTA_MASKING_ALLOW_DISK_USE=true.
package config
