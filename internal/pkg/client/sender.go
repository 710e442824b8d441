package client

import (
	"context"
	"io"
	"time"

	"rankstream/api/rankpb"
	"rankstream/internal/pkg/log"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ContextStream is the sending half of a Rank stream.
type ContextStream interface {
	Send(*rankpb.Context) error
	CloseSend() error
}

// sender writes the two Contexts of a request.
type sender struct {
	delay time.Duration
	log   logrus.FieldLogger
	start time.Time
}

// run sends the first Context with an empty understanding, waits the fixed
// delay, sends the second Context, then closes the sending side. If a send
// fails the remaining steps are skipped and the error is returned.
//
// A send returning io.EOF means the server already ended the stream; run
// stops without error and the stream status is left to the receiving side.
func (s *sender) run(ctx context.Context, stream ContextStream, query, itemID, understanding string) error {
	first := &rankpb.Context{
		Query:  query,
		ItemID: itemID,
	}
	s.log.WithFields(log.ContextToFields(first)).WithFields(logrus.Fields{
		"context_number": 1,
		"elapsed_ms":     log.ElapsedMS(s.start),
	}).Info("sending context")
	if err := stream.Send(first); err != nil {
		return s.sendFailed(err, 1)
	}

	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "wait before second context failed")
	case <-timer.C:
	}

	second := &rankpb.Context{
		Query:         query,
		ItemID:        itemID,
		Understanding: understanding,
	}
	s.log.WithFields(log.ContextToFields(second)).WithFields(logrus.Fields{
		"context_number": 2,
		"elapsed_ms":     log.ElapsedMS(s.start),
	}).Info("sending context")
	if err := stream.Send(second); err != nil {
		return s.sendFailed(err, 2)
	}

	if err := stream.CloseSend(); err != nil {
		return errors.Wrap(err, "close send failed")
	}
	s.log.WithField("elapsed_ms", log.ElapsedMS(s.start)).Info("half-closed client stream")
	return nil
}

func (s *sender) sendFailed(err error, contextNumber int) error {
	if err == io.EOF {
		s.log.WithFields(logrus.Fields{
			"context_number": contextNumber,
			"elapsed_ms":     log.ElapsedMS(s.start),
		}).Info("server ended stream before all contexts were sent")
		return nil
	}
	if contextNumber == 1 {
		return errors.Wrap(err, "send first context failed")
	}
	return errors.Wrap(err, "send second context failed")
}
