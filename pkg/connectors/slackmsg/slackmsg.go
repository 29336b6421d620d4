// Package slackmsg implements the slack connector. It is an outbound
// connector: requests reach it only after the approval-token gate and
// never during the planning phase.
package slackmsg

import (
	"context"
	"strings"

	"github.com/slack-go/slack"

	"sentry-hq/conduit/pkg/comm"
	"sentry-hq/conduit/pkg/connectors"
)

// OpSend is the only operation the connector supports.
const OpSend = "send"

// poster is the slice of the Slack API the connector needs; *slack.Client
// satisfies it.
type poster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SendResult reports a posted message.
type SendResult struct {
	Channel   string `json:"channel"`
	Timestamp string `json:"timestamp"`
}

// Connector is the slack connector.
type Connector struct {
	connectors.Base
	api poster
}

// New creates the slack connector from a bot token.
func New(token string) *Connector {
	return newWithAPI(slack.New(token))
}

func newWithAPI(api poster) *Connector {
	return &Connector{
		Base: connectors.NewBase(comm.KindSlack, OpSend),
		api:  api,
	}
}

// Execute implements connectors.Connector.
func (c *Connector) Execute(ctx context.Context, operation string, params map[string]any) (any, error) {
	if operation != OpSend {
		return nil, connectors.NewUnsupportedOperationError(c.Kind(), operation)
	}
	if missing := comm.RequireParams(params, "channel", "message"); missing != "" {
		return nil, connectors.NewMissingParamError(c.Kind(), missing)
	}

	channel := strings.TrimSpace(comm.StringParam(params, "channel"))
	message := comm.StringParam(params, "message")

	respChannel, ts, err := c.api.PostMessageContext(ctx, channel,
		slack.MsgOptionText(message, false),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		return nil, connectors.NewExecutionError(c.Kind(), OpSend, err)
	}

	return &SendResult{Channel: respChannel, Timestamp: ts}, nil
}
