/*
 * Copyright 2024 The QuickAction Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package provider

import (
	"context"
	"errors"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/quickaction/quickaction/api/types"
	"github.com/quickaction/quickaction/utils/json"
	"github.com/quickaction/quickaction/utils/maps"
)

// MQTTSourceConfiguration configures the broker subscription.
type MQTTSourceConfiguration struct {
	// Server is the mqtt broker address.
	Server string
	// Username for broker authentication.
	Username string
	// Password for broker authentication.
	Password string
	// ClientID is the mqtt client id.
	ClientID string
	// FlagsTopic receives single flag flips as {"id":"...","value":true}.
	FlagsTopic string
	// ConfigTopic receives viewer configuration updates as
	// {"disableLibraryFeatures":true}. Optional.
	ConfigTopic string
	// QOS for the subscriptions.
	QOS uint8
	// CleanSession for the broker session.
	CleanSession bool
	// MaxReconnectInterval is the reconnect retry interval in seconds.
	MaxReconnectInterval int
}

// flagUpdate is the wire format on FlagsTopic.
type flagUpdate struct {
	Id    string `json:"id"`
	Value bool   `json:"value"`
}

// MQTTSource applies flag flips pushed by a broker into a MemoryProvider.
// Flags can flip live between resolution calls; staleness handling stays with
// the provider snapshot model.
type MQTTSource struct {
	// Config is the source configuration.
	Config MQTTSourceConfiguration
	target *MemoryProvider
	logger types.Logger
	client paho.Client
}

// NewMQTTSource decodes the configuration map. Start establishes the broker
// connection.
func NewMQTTSource(engineConfig types.Config, configuration types.Configuration, target *MemoryProvider) (*MQTTSource, error) {
	var config MQTTSourceConfiguration
	if err := maps.Map2Struct(configuration, &config); err != nil {
		return nil, err
	}
	if config.Server == "" {
		return nil, errors.New("server can not be empty")
	}
	if config.FlagsTopic == "" {
		config.FlagsTopic = "quickaction/flags"
	}
	if config.MaxReconnectInterval <= 0 {
		config.MaxReconnectInterval = 60
	}
	if target == nil {
		return nil, errors.New("target provider can not be nil")
	}
	return &MQTTSource{
		Config: config,
		target: target,
		logger: types.NewLogger(engineConfig.Logger),
	}, nil
}

// Start connects to the broker and subscribes the configured topics. The
// subscriptions are re-established automatically after reconnects.
func (s *MQTTSource) Start(ctx context.Context) error {
	opts := paho.NewClientOptions().
		AddBroker(s.Config.Server).
		SetUsername(s.Config.Username).
		SetPassword(s.Config.Password).
		SetClientID(s.Config.ClientID).
		SetCleanSession(s.Config.CleanSession).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(time.Duration(s.Config.MaxReconnectInterval) * time.Second)
	opts.SetOnConnectHandler(func(c paho.Client) {
		s.subscribe(c)
	})

	client := paho.NewClient(opts)
	token := client.Connect()
	select {
	case <-ctx.Done():
		client.Disconnect(0)
		return ctx.Err()
	case <-token.Done():
		if err := token.Error(); err != nil {
			return err
		}
	}
	s.client = client
	return nil
}

func (s *MQTTSource) subscribe(c paho.Client) {
	if token := c.Subscribe(s.Config.FlagsTopic, byte(s.Config.QOS), s.onFlagMessage); token.Wait() && token.Error() != nil {
		s.logger.Printf("mqtt source: subscribe %s err :%v", s.Config.FlagsTopic, token.Error())
	}
	if s.Config.ConfigTopic != "" {
		if token := c.Subscribe(s.Config.ConfigTopic, byte(s.Config.QOS), s.onConfigMessage); token.Wait() && token.Error() != nil {
			s.logger.Printf("mqtt source: subscribe %s err :%v", s.Config.ConfigTopic, token.Error())
		}
	}
}

func (s *MQTTSource) onFlagMessage(_ paho.Client, msg paho.Message) {
	var update flagUpdate
	if err := json.Unmarshal(msg.Payload(), &update); err != nil {
		s.logger.Printf("mqtt source: bad flag payload on %s :%v", msg.Topic(), err)
		return
	}
	if update.Id == "" {
		s.logger.Printf("mqtt source: flag payload without id on %s", msg.Topic())
		return
	}
	s.target.SetFlag(update.Id, update.Value)
}

func (s *MQTTSource) onConfigMessage(_ paho.Client, msg paho.Message) {
	var config types.ViewerConfig
	if err := json.Unmarshal(msg.Payload(), &config); err != nil {
		s.logger.Printf("mqtt source: bad config payload on %s :%v", msg.Topic(), err)
		return
	}
	s.target.SetViewerConfig(config)
}

// Close disconnects from the broker.
func (s *MQTTSource) Close() error {
	if s.client != nil {
		s.client.Disconnect(250)
		s.client = nil
	}
	return nil
}
