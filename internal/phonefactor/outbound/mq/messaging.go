package mq

import (
	"context"
	"encoding/json"

	"github.com/veriphone/veriphone/internal/phonefactor/usecase"
	"github.com/veriphone/veriphone/internal/pkg/instrument"
	"github.com/veriphone/veriphone/internal/pkg/messaging"
	"github.com/veriphone/veriphone/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) PublishCallPlaced(ctx context.Context, msg usecase.CallPlacedEvent) error {
	ctx, span := m.ins.Tracer("phonefactor.outbound.mq").Start(ctx, "PublishCallPlaced")
	defer span.End()

	body, err := json.Marshal(event.CallPlacedMessage{
		CallID:         msg.CallID,
		UserID:         msg.UserID,
		SenderNumber:   msg.SenderNumber,
		ReceiverNumber: msg.ReceiverNumber,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.CallPlacedDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m *Messaging) PublishVerificationResult(ctx context.Context, msg usecase.VerificationResultEvent) error {
	ctx, span := m.ins.Tracer("phonefactor.outbound.mq").Start(ctx, "PublishVerificationResult")
	defer span.End()

	body, err := json.Marshal(event.VerificationResultMessage{
		UserID:  msg.UserID,
		Matched: msg.Matched,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.VerificationResultDestination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
