package slackmsg

import (
	"context"
	"errors"
	"testing"

	"github.com/slack-go/slack"

	"sentry-hq/conduit/pkg/connectors"
)

type fakeAPI struct {
	channel string
	err     error
	calls   int
}

func (f *fakeAPI) PostMessageContext(_ context.Context, channelID string, _ ...slack.MsgOption) (string, string, error) {
	f.calls++
	f.channel = channelID
	if f.err != nil {
		return "", "", f.err
	}
	return channelID, "1756000000.000100", nil
}

func TestSend(t *testing.T) {
	api := &fakeAPI{}
	c := newWithAPI(api)

	got, err := c.Execute(context.Background(), OpSend, map[string]any{
		"channel": "#ops",
		"message": "deploy complete",
	})
	if err != nil {
		t.Fatal(err)
	}
	res := got.(*SendResult)
	if res.Channel != "#ops" || res.Timestamp == "" {
		t.Errorf("result = %+v", res)
	}
	if api.calls != 1 {
		t.Errorf("calls = %d, want 1", api.calls)
	}
}

func TestSendValidation(t *testing.T) {
	api := &fakeAPI{}
	c := newWithAPI(api)

	for _, params := range []map[string]any{
		{"message": "m"},
		{"channel": "#ops"},
		{"channel": "", "message": "m"},
	} {
		_, err := c.Execute(context.Background(), OpSend, params)
		var missing *connectors.MissingParamError
		if !errors.As(err, &missing) {
			t.Errorf("params %v: error = %v, want MissingParamError", params, err)
		}
	}
	if api.calls != 0 {
		t.Error("nothing may be posted on validation failure")
	}
}

func TestSendAPIFailure(t *testing.T) {
	c := newWithAPI(&fakeAPI{err: errors.New("channel_not_found")})
	_, err := c.Execute(context.Background(), OpSend, map[string]any{
		"channel": "#nope", "message": "m",
	})
	var exec *connectors.ExecutionError
	if !errors.As(err, &exec) {
		t.Fatalf("error = %v, want ExecutionError", err)
	}
}

func TestUnsupportedOperation(t *testing.T) {
	c := newWithAPI(&fakeAPI{})
	_, err := c.Execute(context.Background(), "broadcast", nil)
	var unsupported *connectors.UnsupportedOperationError
	if !errors.As(err, &unsupported) {
		t.Fatalf("error = %v, want UnsupportedOperationError", err)
	}
}
