package alink

import "fmt"

// TopicPrefixSys is the base of the platform's system topic space.
const TopicPrefixSys = "/sys"

// Topics provides builders for the platform's device topics.
// Using these helpers keeps topic construction identical everywhere the
// bridge publishes or subscribes; the strings must match the platform
// byte for byte.
type Topics struct{}

// PropertyPost returns the uplink property report topic for a device.
//
// Example: /sys/a1b2c3/socket-01/thing/event/property/post
func (Topics) PropertyPost(productKey, deviceName string) string {
	return fmt.Sprintf("%s/%s/%s/thing/event/property/post", TopicPrefixSys, productKey, deviceName)
}

// PropertyPostReply returns the platform's acknowledgement topic for
// property reports.
func (Topics) PropertyPostReply(productKey, deviceName string) string {
	return fmt.Sprintf("%s/%s/%s/thing/event/property/post_reply", TopicPrefixSys, productKey, deviceName)
}

// PropertySet returns the downlink property command topic for a device.
//
// Example: /sys/a1b2c3/socket-01/thing/service/property/set
func (Topics) PropertySet(productKey, deviceName string) string {
	return fmt.Sprintf("%s/%s/%s/thing/service/property/set", TopicPrefixSys, productKey, deviceName)
}

// PropertySetReply returns the device-side acknowledgement topic for
// property commands.
func (Topics) PropertySetReply(productKey, deviceName string) string {
	return fmt.Sprintf("%s/%s/%s/thing/service/property/set_reply", TopicPrefixSys, productKey, deviceName)
}

// TopoAdd returns the gateway's sub-device registration topic. The gateway
// identity, not the sub-device identity, appears in the path; sub-device
// identities travel in the payload.
//
// Example: /sys/gw-pk/gw-name/thing/topo/add
func (Topics) TopoAdd(productKey, deviceName string) string {
	return fmt.Sprintf("%s/%s/%s/thing/topo/add", TopicPrefixSys, productKey, deviceName)
}

// TopoAddReply returns the platform's acknowledgement topic for topo/add.
func (Topics) TopoAddReply(productKey, deviceName string) string {
	return fmt.Sprintf("%s/%s/%s/thing/topo/add_reply", TopicPrefixSys, productKey, deviceName)
}
