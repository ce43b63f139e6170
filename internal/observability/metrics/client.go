package metrics

import (
	"strconv"
	"time"

	"github.com/secureops/secureops-client/internal/domain/job"
	obserrors "github.com/secureops/secureops-client/internal/observability/errors"
	"github.com/secureops/secureops-client/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// RequestMetric captures one gateway call, including any retry it performed.
type RequestMetric struct {
	Kind     string
	Method   string
	Status   int
	Retried  bool
	Duration time.Duration
	Err      error
}

// EmitRequest emits gateway request metrics.
func EmitRequest(sink statsd.Sink, in RequestMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"kind":    in.Kind,
		"method":  in.Method,
		"retried": strconv.FormatBool(in.Retried),
		"result":  resultFor(in.Err),
	}
	if in.Status > 0 {
		tags["status"] = strconv.Itoa(in.Status)
	}
	addErrorClass(tags, in.Err)

	sink.Count("gateway.request", 1, tags)
	if in.Duration > 0 {
		sink.Timing("gateway.duration", in.Duration, CloneTags(tags))
	}
}

// RefreshMetric captures one caller's view of a refresh exchange. Shared is
// true when the caller joined an exchange already in flight.
type RefreshMetric struct {
	Shared   bool
	Duration time.Duration
	Err      error
}

// EmitRefresh emits refresh coordination metrics.
func EmitRefresh(sink statsd.Sink, in RefreshMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"shared": strconv.FormatBool(in.Shared),
		"result": resultFor(in.Err),
	}
	addErrorClass(tags, in.Err)

	sink.Count("refresh.attempt", 1, tags)
	if !in.Shared && in.Duration > 0 {
		sink.Timing("refresh.duration", in.Duration, CloneTags(tags))
	}
}

// EmitJobTransition emits a metric for a tracked job state change.
func EmitJobTransition(sink statsd.Sink, tr job.Transition) {
	if sink == nil {
		return
	}

	sink.Count("job.transition", 1, map[string]string{
		"category": tr.Category.String(),
		"from":     string(tr.From),
		"to":       string(tr.To),
	})
}

// EmitPollTick emits a metric for one status query made while polling.
func EmitPollTick(sink statsd.Sink, category job.Category, remote string, err error) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"category": category.String(),
		"result":   resultFor(err),
	}
	if remote != "" {
		tags["remote_status"] = remote
	}
	addErrorClass(tags, err)

	sink.Count("job.poll", 1, tags)
}

// EmitSessionState counts transitions into state.
func EmitSessionState(sink statsd.Sink, state string) {
	if sink == nil {
		return
	}
	sink.Count("session.state_change", 1, map[string]string{"state": state})
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func resultFor(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

func addErrorClass(tags map[string]string, err error) {
	if err == nil {
		return
	}
	if class := obserrors.Classify(err); class != "" {
		tags["error_class"] = class
	}
}
