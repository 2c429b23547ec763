/*
 * Copyright 2025 Carver Automation Corporation.
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

// Package natsutil publishes backup results to NATS JetStream.
package natsutil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/carverauto/configguard/pkg/backup"
	"github.com/carverauto/configguard/pkg/config"
	"github.com/carverauto/configguard/pkg/logger"
	"github.com/carverauto/configguard/pkg/models"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	EventSource           = "configguard"
	EventTypeBackupResult = "com.carverauto.configguard.backup.result"
	clientName            = "configguard"
)

// Publisher is the subset of jetstream.JetStream used to publish events.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// EventPublisher provides methods for publishing CloudEvents to NATS JetStream.
type EventPublisher struct {
	js      Publisher
	stream  string
	subject string
	logger  logger.Logger
}

// NewEventPublisher creates a new EventPublisher. Events are published on
// <subject>.<outcome>.
func NewEventPublisher(js Publisher, streamName, subject string, log logger.Logger) *EventPublisher {
	return &EventPublisher{
		js:      js,
		stream:  streamName,
		subject: subject,
		logger:  log,
	}
}

// PublishResult publishes one device result as a CloudEvent.
func (p *EventPublisher) PublishResult(ctx context.Context, runID string, result backup.Result) error {
	data := models.BackupResultEventData{
		RunID:           runID,
		Hostname:        result.Hostname,
		IPAddress:       result.IPAddress,
		Domain:          result.Domain,
		Outcome:         result.Outcome(),
		Kind:            string(result.Kind),
		Path:            result.Path,
		Started:         result.Started,
		Finished:        result.Finished,
		DurationSeconds: result.Duration().Seconds(),
	}

	if result.Err != nil {
		data.Error = result.Err.Error()
	}

	event := models.CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          EventSource,
		Type:            EventTypeBackupResult,
		DataContentType: "application/json",
		Subject:         p.subject + "." + data.Outcome,
		Time:            &data.Finished,
		Data:            data,
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal backup result event: %w", err)
	}

	ack, err := p.js.Publish(ctx, event.Subject, eventBytes, jetstream.WithMsgID(event.ID))
	if err != nil {
		return fmt.Errorf("failed to publish backup result event: %w", err)
	}

	p.logger.Debug().
		Str("event_id", event.ID).
		Str("subject", event.Subject).
		Str("stream", ack.Stream).
		Uint64("seq", ack.Sequence).
		Msg("Published backup result event")

	return nil
}

// ConnectWithEventPublisher connects to NATS, makes sure the stream captures
// the result subjects and returns a publisher. The caller closes the
// connection.
func ConnectWithEventPublisher(
	ctx context.Context, cfg config.NATSConfig, log logger.Logger, extraOpts ...nats.Option,
) (*EventPublisher, *nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(clientName),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	if cfg.CredsFile != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFile))
	}

	if cfg.TLS != nil {
		tlsConf, err := TLSConfig(cfg.TLS)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build NATS TLS config: %w", err)
		}

		opts = append(opts, nats.Secure(tlsConf))
	}

	opts = append(opts, extraOpts...)

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()

		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if err := ensureStream(ctx, js, cfg.Stream, cfg.Subject+".*"); err != nil {
		nc.Close()

		return nil, nil, err
	}

	log.Info().Str("url", nc.ConnectedUrl()).Str("stream", cfg.Stream).Msg("Connected to NATS")

	return NewEventPublisher(js, cfg.Stream, cfg.Subject, log), nc, nil
}

func ensureStream(ctx context.Context, js jetstream.JetStream, streamName, subject string) error {
	stream, err := js.Stream(ctx, streamName)
	if err != nil {
		if !isStreamMissingErr(err) {
			return fmt.Errorf("failed to look up stream %s: %w", streamName, err)
		}

		_, err = js.CreateStream(ctx, jetstream.StreamConfig{
			Name:     streamName,
			Subjects: []string{subject},
		})
		if err != nil {
			return fmt.Errorf("failed to create stream %s: %w", streamName, err)
		}

		return nil
	}

	streamConfig := stream.CachedInfo().Config

	subjects := ensureSubjectList(streamConfig.Subjects, subject)
	if len(subjects) == len(streamConfig.Subjects) {
		return nil
	}

	streamConfig.Subjects = subjects

	if _, err := js.UpdateStream(ctx, streamConfig); err != nil {
		return fmt.Errorf("failed to add %s to stream %s: %w", subject, streamName, err)
	}

	return nil
}

func isStreamMissingErr(err error) bool {
	return errors.Is(err, jetstream.ErrStreamNotFound) ||
		errors.Is(err, jetstream.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrStreamNotFound) ||
		errors.Is(err, nats.ErrNoStreamResponse) ||
		errors.Is(err, nats.ErrNoResponders)
}

// ensureSubjectList appends subject unless an existing pattern already
// matches it.
func ensureSubjectList(subjects []string, subject string) []string {
	for _, pattern := range subjects {
		if matchesSubject(pattern, subject) {
			return subjects
		}
	}

	return append(subjects, subject)
}

// matchesSubject reports whether pattern covers subject using NATS token
// wildcards. A literal wildcard in subject only matches the same wildcard.
func matchesSubject(pattern, subject string) bool {
	patternTokens := strings.Split(pattern, ".")
	subjectTokens := strings.Split(subject, ".")

	for i, token := range patternTokens {
		if token == ">" {
			return i < len(subjectTokens)
		}

		if i >= len(subjectTokens) {
			return false
		}

		if token != "*" && token != subjectTokens[i] {
			return false
		}
	}

	return len(patternTokens) == len(subjectTokens)
}
