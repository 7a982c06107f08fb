package alink

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// Credentials carries everything the MQTT transport needs to authenticate
// one device identity against the platform broker.
type Credentials struct {
	ClientID string // full MQTT client id including the securemode suffix
	Username string // "{deviceName}&{productKey}"
	Password string // hex HMAC-SHA1 device signature
}

// Sign computes the platform device signature: lowercase hex HMAC-SHA1 of
// the canonical "clientId{cid}deviceName{dn}productKey{pk}" concatenation,
// keyed with the device secret.
//
// The clientID here is the bare client identifier, without the
// "|securemode=...|" suffix that the MQTT client id carries on the wire.
func Sign(clientID, productKey, deviceName, deviceSecret string) string {
	mac := hmac.New(sha1.New, []byte(deviceSecret))
	mac.Write([]byte("clientId" + clientID))
	mac.Write([]byte("deviceName" + deviceName))
	mac.Write([]byte("productKey" + productKey))
	return hex.EncodeToString(mac.Sum(nil))
}

// MQTTCredentials derives the MQTT connection credentials for a device
// identity triple.
//
// The bare client id is "{productKey}.{deviceName}"; the wire client id
// appends the securemode declaration: 2 for TLS endpoints, 3 for plaintext.
// The pair must match the transport actually used or the broker rejects
// the CONNECT.
func MQTTCredentials(productKey, deviceName, deviceSecret string, useTLS bool) Credentials {
	clientID := productKey + "." + deviceName

	securemode := 3
	if useTLS {
		securemode = 2
	}

	return Credentials{
		ClientID: fmt.Sprintf("%s|securemode=%d,signmethod=hmacsha1|", clientID, securemode),
		Username: deviceName + "&" + productKey,
		Password: Sign(clientID, productKey, deviceName, deviceSecret),
	}
}

// TopoSign computes the sub-device signature carried inside a topo/add
// request: lowercase hex HMAC-SHA1 over the alphabetically ordered
// parameter concatenation, keyed with the sub-device's secret.
func TopoSign(productKey, deviceName, deviceSecret, clientID, timestamp string) string {
	mac := hmac.New(sha1.New, []byte(deviceSecret))
	mac.Write([]byte("clientId" + clientID))
	mac.Write([]byte("deviceName" + deviceName))
	mac.Write([]byte("productKey" + productKey))
	mac.Write([]byte("timestamp" + timestamp))
	return hex.EncodeToString(mac.Sum(nil))
}
