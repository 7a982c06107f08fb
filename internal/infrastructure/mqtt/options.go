package mqtt

import (
	"crypto/tls"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/halink/internal/alink"
	"github.com/nerrad567/halink/internal/infrastructure/config"
)

// Connection constants.
const (
	// connectTimeout is the maximum time to wait for a single
	// connection attempt to complete.
	connectTimeout = 10 * time.Second

	// publishTimeout is the maximum time to wait for publish acknowledgment.
	publishTimeout = 5 * time.Second

	// subscribeTimeout is the maximum time to wait for subscribe acknowledgment.
	subscribeTimeout = 5 * time.Second

	// disconnectQuiesce is the time to wait for pending operations on
	// graceful disconnect, in milliseconds.
	disconnectQuiesce = 1000

	// maxQoS is the maximum QoS level supported.
	maxQoS = 2

	// protocolVersion pins MQTT 3.1.1; the platform brokers reject 5.0
	// CONNECT packets.
	protocolVersion = 4

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12
)

// buildClientOptions creates paho MQTT options for the gateway session.
//
// The broker endpoint follows use_ssl: the TLS port with an ssl://
// scheme when set, the plaintext port otherwise. The securemode
// embedded in the credentials' client id must match the chosen
// transport; the caller derives both from the same flag.
func buildClientOptions(cfg config.BrokerConfig, creds alink.Credentials) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	scheme, port := "tcp", cfg.Port
	if cfg.UseSSL {
		scheme, port = "ssl", cfg.TLSPort
	}
	opts.AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Host, port))

	opts.SetClientID(creds.ClientID)
	opts.SetUsername(creds.Username)
	opts.SetPassword(creds.Password)

	opts.SetProtocolVersion(protocolVersion)
	opts.SetCleanSession(true)

	// Reconnection is owned by this package's bounded retry sequence,
	// not by paho's built-in unbounded loop.
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	opts.SetConnectTimeout(connectTimeout)
	opts.SetKeepAlive(cfg.GetKeepAlive())

	if cfg.UseSSL {
		opts.SetTLSConfig(&tls.Config{MinVersion: tlsMinVersion})
	}

	return opts
}
