package client

import (
	"io"
	"time"

	"rankstream/api/rankpb"
	"rankstream/internal/pkg/buffer"
	"rankstream/internal/pkg/checksum"
	"rankstream/internal/pkg/log"

	"github.com/sirupsen/logrus"
)

// ResultStream is the receiving half of a Rank stream.
type ResultStream interface {
	Recv() (*rankpb.ResultSet, error)
}

// arrival is one outcome of a stream read. The last arrival on a channel
// carries the error that ended the stream, io.EOF when the server finished.
type arrival struct {
	rs  *rankpb.ResultSet
	err error
}

// receive reads the stream on its own goroutine until it ends. The returned
// channel is unbuffered and closed after the terminal arrival.
func receive(stream ResultStream) <-chan arrival {
	out := make(chan arrival)
	go func() {
		defer close(out)
		for {
			rs, err := stream.Recv()
			if err != nil {
				out <- arrival{err: err}
				return
			}
			out <- arrival{rs: rs}
		}
	}()
	return out
}

// drain consumes the remaining arrivals and returns the error that ended the
// stream.
func drain(arrivals <-chan arrival) error {
	var last error
	for a := range arrivals {
		if a.err != nil {
			last = a.err
		}
	}
	if last == io.EOF {
		return nil
	}
	return last
}

// collector gathers result sets until a cutover, then picks the best one.
type collector struct {
	buf     *buffer.Versioned
	log     logrus.FieldLogger
	start   time.Time
	timeout time.Duration
}

func newCollector(logger logrus.FieldLogger, start time.Time, timeout time.Duration) *collector {
	return &collector{
		buf:     buffer.New(),
		log:     logger,
		start:   start,
		timeout: timeout,
	}
}

// collect buffers arrivals until cutover fires or the stream ends, and returns
// the buffered result set with the highest version, or EmptyResult. If the
// stream ended with an error before cutover, that error is returned along
// with the selection. Arrivals still pending when collect returns are left on
// the channel.
func (c *collector) collect(arrivals <-chan arrival, cutover <-chan time.Time) (*rankpb.ResultSet, error) {
	for {
		select {
		case <-cutover:
			return c.cutover(), nil
		default:
		}

		select {
		case <-cutover:
			return c.cutover(), nil
		case a, ok := <-arrivals:
			if !ok {
				return c.finish(), nil
			}
			if a.err == io.EOF {
				c.log.WithFields(logrus.Fields{
					"elapsed_ms":        log.ElapsedMS(c.start),
					"versions_received": c.buf.Len(),
				}).Info("stream completed before cutover")
				return c.finish(), nil
			}
			if a.err != nil {
				c.log.WithError(a.err).WithField("elapsed_ms", log.ElapsedMS(c.start)).Warn("stream error")
				return c.finish(), a.err
			}
			select {
			case <-cutover:
				c.log.WithFields(log.ResultSetToFields(a.rs)).Debug("discarding result set taken after cutover")
				return c.cutover(), nil
			default:
			}
			c.add(a.rs)
		}
	}
}

func (c *collector) add(rs *rankpb.ResultSet) {
	fields := log.ResultSetToFields(rs)
	fields["elapsed_ms"] = log.ElapsedMS(c.start)
	sum, sumErr := checksum.Sum(rs)
	if sumErr == nil {
		fields["checksum"] = sum
	}
	prev := c.buf.Put(rs)
	fields["is_replacement"] = prev != nil
	if prev != nil && sumErr == nil {
		if prevSum, err := checksum.Sum(prev); err == nil {
			fields["identical"] = prevSum == sum
		}
	}
	c.log.WithFields(fields).Info("received result set")
	for _, item := range log.ItemsToFields(rs) {
		c.log.WithFields(item).Debug("item details")
	}
}

func (c *collector) cutover() *rankpb.ResultSet {
	c.log.WithFields(logrus.Fields{
		"timeout_ms":        c.timeout.Milliseconds(),
		"elapsed_ms":        log.ElapsedMS(c.start),
		"versions_received": c.buf.Len(),
	}).Info("cutover reached, proceeding with available results")
	return c.finish()
}

func (c *collector) finish() *rankpb.ResultSet {
	c.log.WithFields(logrus.Fields{
		"buffer_size":        c.buf.Len(),
		"available_versions": c.buf.Versions().String(),
		"elapsed_ms":         log.ElapsedMS(c.start),
	}).Debug("buffer state at selection")
	return c.buf.Best()
}
