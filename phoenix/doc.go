// Package phoenix holds the vocabulary shared by every device on the bus:
// numeric error codes and their aggregation, parameter identifiers, device
// handles and the Native interface through which all configuration reaches
// a device.
//
// Native is deliberately small. Device packages such as motorcontrol and
// canifier translate typed configuration into ConfigSetParameter and
// ConfigGetParameter calls; canlink provides the CAN implementation.
package phoenix
