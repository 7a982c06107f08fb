// Package alink implements the vendor platform's MQTT device conventions:
// credential derivation, topic construction, and JSON payload envelopes.
//
// The platform follows the Alink style: devices authenticate with an
// HMAC-SHA1 signature over their identity triple (productKey, deviceName,
// deviceSecret), and exchange JSON envelopes on topics under
// /sys/{productKey}/{deviceName}/.
//
// Everything in this package is pure computation with no I/O and no clock
// reads. Callers supply timestamps and request ids so that wire output is
// fully deterministic under test.
//
// # Topic space
//
//	/sys/{pk}/{dn}/thing/event/property/post         uplink property report
//	/sys/{pk}/{dn}/thing/event/property/post_reply   platform acknowledgement
//	/sys/{pk}/{dn}/thing/service/property/set        downlink property command
//	/sys/{pk}/{dn}/thing/service/property/set_reply  command acknowledgement
//	/sys/{pk}/{dn}/thing/topo/add                    gateway sub-device registration
//	/sys/{pk}/{dn}/thing/topo/add_reply              registration acknowledgement
//
// # Usage
//
//	creds := alink.MQTTCredentials(pk, dn, secret, true)
//	topic := alink.Topics{}.PropertyPost(pk, dn)
//	body, _ := json.Marshal(alink.NewPropertyPost(values, time.Now()))
package alink
