// Package log add logging utilities.
package log

import (
	"strings"
	"time"

	"rankstream/api/rankpb"

	"github.com/sirupsen/logrus"
)

// SetLogger sets the default logger's level.
func SetLogger(level string) {
	logrus.SetLevel(logrus.ErrorLevel)
	customFormatter := new(logrus.TextFormatter)
	customFormatter.TimestampFormat = time.RFC3339
	logrus.SetFormatter(customFormatter)
	customFormatter.FullTimestamp = true
	switch strings.ToLower(level) {
	case "trace":
		logrus.SetLevel(logrus.TraceLevel)
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.ErrorLevel)
	}
}

// ContextToFields describes a Context message without its raw understanding text.
func ContextToFields(msg *rankpb.Context) logrus.Fields {
	return logrus.Fields{
		"query":                msg.Query,
		"item_id":              msg.ItemID,
		"understanding_length": len(msg.Understanding),
		"understanding_empty":  msg.Understanding == "",
	}
}

// ResultSetToFields describes a ResultSet message.
func ResultSetToFields(msg *rankpb.ResultSet) logrus.Fields {
	return logrus.Fields{
		"version": msg.Version,
		"items":   len(msg.Items),
	}
}

// ItemsToFields returns one field set per item, for debug logging.
func ItemsToFields(msg *rankpb.ResultSet) []logrus.Fields {
	out := make([]logrus.Fields, 0, len(msg.Items))
	for i, item := range msg.Items {
		if item == nil {
			continue
		}
		out = append(out, logrus.Fields{
			"version":   msg.Version,
			"index":     i,
			"item_id":   item.ItemID,
			"result_id": item.ResultID,
			"score":     item.Score,
		})
	}
	return out
}

// ElapsedMS returns the milliseconds elapsed since start.
func ElapsedMS(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
