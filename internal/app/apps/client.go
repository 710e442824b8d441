package apps

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"rankstream/api/rankpb"
	"rankstream/internal/pkg/client"
	"rankstream/internal/pkg/metrics"
	"rankstream/internal/pkg/validate"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

// Defaults used by the client app when the request is not given as arguments.
const (
	DefaultQuery         = "coffee maker"
	DefaultItemID        = "B000123456"
	DefaultUnderstanding = "user wants high-quality coffee brewing equipment"
)

// ClientAppCfg configures a ClientApp.
type ClientAppCfg interface {
	ApplyClientApp(*ClientApp) error
}

// ClientApp is the demo rankstream client application.
type ClientApp struct {
	Host       string        `validate:"required"`
	Port       uint16        `validate:"required"`
	SendDelay  time.Duration `validate:"min=0"`
	CutoverMin time.Duration `validate:"min=0"`
	CutoverMax time.Duration `validate:"gtefield=CutoverMin"`

	// Out receives the selected result set.
	Out io.Writer `validate:"-"`
	// DialOptions are appended to the client's dial options.
	DialOptions []grpc.DialOption `validate:"-"`
	// Registry holds the client metrics recorded by Run.
	Registry *prometheus.Registry `validate:"-"`

	metrics *metrics.Client
}

// NewClientApp creates a new ClientApp.
func NewClientApp(cfgs ...ClientAppCfg) (*ClientApp, error) {
	app := &ClientApp{
		Host:       "localhost",
		SendDelay:  client.DefaultSendDelay,
		CutoverMin: client.DefaultCutoverMin,
		CutoverMax: client.DefaultCutoverMax,
		Out:        os.Stdout,
		Registry:   prometheus.NewRegistry(),
	}
	for _, cfg := range cfgs {
		if err := cfg.ApplyClientApp(app); err != nil {
			return nil, errors.Wrap(err, "apply ClientApp cfg failed")
		}
	}
	if err := validate.Validate().Struct(app); err != nil {
		return nil, errors.Wrap(err, "validate ClientApp failed")
	}
	app.metrics = metrics.NewClient(app.Registry)
	return app, nil
}

// Run issues one ranked results request and prints the selected result set.
// args are the optional query, item id and understanding, in that order.
func (app *ClientApp) Run(ctx context.Context, args []string) error {
	query, itemID, understanding := DefaultQuery, DefaultItemID, DefaultUnderstanding
	if len(args) > 0 {
		query = args[0]
	}
	if len(args) > 1 {
		itemID = args[1]
	}
	if len(args) > 2 {
		understanding = args[2]
	}

	c, err := client.NewClient(
		client.WithServerAddr(net.JoinHostPort(app.Host, strconv.Itoa(int(app.Port)))),
		client.WithDialOptions(app.DialOptions...),
		client.WithCallOptions(grpc.WaitForReady(true)),
		client.WithSendDelay(app.SendDelay),
		client.WithCutoverRange(app.CutoverMin, app.CutoverMax),
		client.WithMetrics(app.metrics),
	)
	if err != nil {
		return errors.Wrap(err, "create client failed")
	}
	if err := c.Connect(ctx); err != nil {
		return errors.Wrap(err, "connect client failed")
	}
	defer func() {
		if err := c.Close(); err != nil {
			logger.WithError(err).Warn("close client failed")
		}
	}()

	rs, err := c.RequestRankedResults(ctx, query, itemID, understanding)
	if err != nil {
		return errors.Wrap(err, "request ranked results failed")
	}
	logger.WithFields(logrus.Fields{
		"version": rs.Version,
		"items":   len(rs.Items),
	}).Info("request complete")
	return errors.Wrap(printResultSet(app.Out, rs), "print result set failed")
}

func printResultSet(w io.Writer, rs *rankpb.ResultSet) error {
	if rs.IsEmpty() {
		_, err := fmt.Fprintln(w, "no results before cutover")
		return err
	}
	if _, err := fmt.Fprintf(w, "version %d, %d items\n", rs.Version, len(rs.Items)); err != nil {
		return err
	}
	for i, item := range rs.Items {
		if _, err := fmt.Fprintf(w, "%2d. %s %s %.4f\n", i+1, item.ItemID, item.ResultID, item.Score); err != nil {
			return err
		}
	}
	return nil
}
