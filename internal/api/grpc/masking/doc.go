// Package masking implements the gRPC transport for the masked alarm query.
//
// The service is described by hand on top of the well-known protobuf types:
// requests are google.protobuf.Struct values and responses are
// google.protobuf.ListValue values holding one canonical Extended JSON string
// per alarm document, so every BSON number type survives the trip.
package masking
