package protocol

import (
	"fmt"

	"github.com/watchgraph/watchgraphd/pkg/bser"
	"github.com/watchgraph/watchgraphd/pkg/mutagen"
)

// Request is the decoded form of one dispatched command: everything after
// the command name, already converted to native Go values (see
// bser.ToNative) so handlers never need to know which wire encoding
// delivered them.
type Request struct {
	Connection *Connection
	Service    Service
	Args       []interface{}
}

// dispatch implements §4.11's DISPATCHING state: decode the command array,
// look it up in registry, check it against the poison whitelist, invoke its
// handler, and enqueue the resulting response (or an {error} response).
func (c *Connection) dispatch(svc Service, registry *Registry, value bser.Value) {
	arr, ok := bser.ToNative(value).([]interface{})
	if !ok || len(arr) == 0 {
		c.enqueue(errorResponse(fmt.Errorf("command must be a non-empty array")))
		return
	}

	name, ok := arr[0].(string)
	if !ok {
		c.enqueue(errorResponse(fmt.Errorf("command name must be a string")))
		return
	}

	cmd, ok := registry.Lookup(name)
	if !ok {
		c.enqueue(errorResponse(fmt.Errorf("unknown command: %s", name)))
		return
	}

	if reason := svc.PoisonReason(); reason != nil && !cmd.PoisonImmune {
		c.enqueue(errorResponse(fmt.Errorf("watchgraphd is poisoned: %v", reason)))
		return
	}

	req := &Request{Connection: c, Service: svc, Args: arr[1:]}
	result, err := cmd.Handler(req)
	if err != nil {
		c.enqueue(errorResponse(err))
		return
	}

	response := map[string]interface{}{"version": mutagen.Version}
	for k, v := range result {
		response[k] = v
	}
	c.enqueue(response)
}

// errorResponse builds the §6 "errors set error to a string and omit normal
// fields" envelope.
func errorResponse(err error) map[string]interface{} {
	return map[string]interface{}{
		"version": mutagen.Version,
		"error":   err.Error(),
	}
}

// stringArg extracts the i'th argument as a string.
func stringArg(args []interface{}, i int) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("missing argument %d", i)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", fmt.Errorf("argument %d must be a string", i)
	}
	return s, nil
}

// mapArg extracts the i'th argument as an object, returning nil (not an
// error) if absent or of the wrong type: every caller treats a missing
// options object as "defaults for every field."
func mapArg(args []interface{}, i int) map[string]interface{} {
	if i >= len(args) {
		return nil
	}
	m, _ := args[i].(map[string]interface{})
	return m
}

// intArg extracts the i'th argument as an int.
func intArg(args []interface{}, i int) (int, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing argument %d", i)
	}
	switch v := args[i].(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, fmt.Errorf("argument %d must be a number", i)
	}
}

// asNumber converts a decoded numeric value (float64 from JSON, or int64
// from BSER-native forms) to a float64, for fields like sync_timeout that
// are specified in milliseconds.
func asNumber(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}

// asStringSlice converts a decoded list value into a []string, skipping (not
// erroring on) any non-string element.
func asStringSlice(raw interface{}) []string {
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// toInterfaceSlice widens a []string to []interface{}, the shape bser.Value
// arrays are built from.
func toInterfaceSlice(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
