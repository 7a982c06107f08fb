package alink

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Version is the Alink protocol version carried in every envelope.
const Version = "1.0"

// SignMethodHmacSHA1 is the signature method declared in topo/add params.
const SignMethodHmacSHA1 = "hmacSha1"

// MethodTopoAdd is the request method for sub-device registration.
const MethodTopoAdd = "thing.topo.add"

// Service reply codes.
const (
	// CodeSuccess acknowledges a handled service request.
	CodeSuccess = 200

	// CodeFailure reports a service request that could not be applied.
	CodeFailure = 500
)

// PropertyPost is the uplink property report envelope. The id doubles as a
// millisecond timestamp, matching the platform's historical convention, and
// params carries the property values plus an explicit timestamp key so
// consumers need not parse the id.
type PropertyPost struct {
	ID      int64          `json:"id"`
	Version string         `json:"version"`
	Params  map[string]any `json:"params"`
}

// NewPropertyPost builds a property report from converted values and the
// cycle timestamp. The values map is copied; mutating it afterwards does
// not affect the envelope.
func NewPropertyPost(values map[string]float64, ts time.Time) PropertyPost {
	ms := ts.UnixMilli()

	params := make(map[string]any, len(values)+1)
	for name, v := range values {
		params[name] = v
	}
	params["timestamp"] = ms

	return PropertyPost{
		ID:      ms,
		Version: Version,
		Params:  params,
	}
}

// TopoAdd is the gateway→platform sub-device registration envelope.
type TopoAdd struct {
	ID      string          `json:"id"`
	Version string          `json:"version"`
	Params  []TopoAddParams `json:"params"`
	Method  string          `json:"method"`
}

// TopoAddParams identifies and signs one sub-device inside a topo/add
// request.
type TopoAddParams struct {
	ProductKey string `json:"productKey"`
	DeviceName string `json:"deviceName"`
	ClientID   string `json:"clientId"`
	Timestamp  string `json:"timestamp"`
	SignMethod string `json:"signMethod"`
	Sign       string `json:"sign"`
}

// NewTopoAdd builds a registration request for one sub-device, signed with
// the sub-device's own secret. requestID must be unique per in-flight
// request (the bridge uses UUIDs); ts is the signing timestamp.
func NewTopoAdd(requestID, productKey, deviceName, deviceSecret string, ts time.Time) TopoAdd {
	clientID := productKey + "." + deviceName
	timestamp := strconv.FormatInt(ts.UnixMilli(), 10)

	return TopoAdd{
		ID:      requestID,
		Version: Version,
		Method:  MethodTopoAdd,
		Params: []TopoAddParams{
			{
				ProductKey: productKey,
				DeviceName: deviceName,
				ClientID:   clientID,
				Timestamp:  timestamp,
				SignMethod: SignMethodHmacSHA1,
				Sign:       TopoSign(productKey, deviceName, deviceSecret, clientID, timestamp),
			},
		},
	}
}

// ServiceRequest is a downlink service call (e.g. property/set) as received
// from the platform. The id is kept raw because the platform emits both
// numeric and string ids depending on its side of the session.
type ServiceRequest struct {
	ID      json.RawMessage `json:"id"`
	Version string          `json:"version"`
	Params  map[string]any  `json:"params"`
	Method  string          `json:"method"`
}

// RequestID returns the request id as a plain string, with surrounding
// JSON quotes stripped when present.
func (r ServiceRequest) RequestID() string {
	return rawID(r.ID)
}

// Reply is a platform acknowledgement (post_reply, add_reply) as received
// by the bridge. The id is raw for the same reason as ServiceRequest's.
type Reply struct {
	ID      json.RawMessage `json:"id"`
	Code    int             `json:"code"`
	Message string          `json:"message,omitempty"`
}

// RequestID returns the acknowledged request's id as a plain string.
func (r Reply) RequestID() string {
	return rawID(r.ID)
}

// OK reports whether the acknowledgement signals success.
func (r Reply) OK() bool {
	return r.Code == CodeSuccess
}

func rawID(raw json.RawMessage) string {
	id := bytes.TrimSpace(raw)
	if len(id) >= 2 && id[0] == '"' && id[len(id)-1] == '"' {
		id = id[1 : len(id)-1]
	}
	return string(id)
}

// ServiceReply acknowledges a downlink service call. Code 200 signals
// success; any other code signals failure, with Message as the operator
// hint.
type ServiceReply struct {
	ID      string   `json:"id"`
	Code    int      `json:"code"`
	Data    struct{} `json:"data"`
	Message string   `json:"message,omitempty"`
}

// NewServiceReply builds an acknowledgement echoing the request id.
func NewServiceReply(requestID string, code int, message string) ServiceReply {
	return ServiceReply{
		ID:      requestID,
		Code:    code,
		Message: message,
	}
}
