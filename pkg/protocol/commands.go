package protocol

import (
	"fmt"
	"time"

	"github.com/watchgraph/watchgraphd/pkg/logging"
	"github.com/watchgraph/watchgraphd/pkg/mutagen"
)

// durationMS reads a millisecond-valued field (e.g. sync_timeout) out of an
// options object, defaulting to 0 ("wait indefinitely"/"no sync") if absent
// or malformed.
func durationMS(spec map[string]interface{}, key string) time.Duration {
	if spec == nil {
		return 0
	}
	n, ok := asNumber(spec[key])
	if !ok {
		return 0
	}
	return time.Duration(n) * time.Millisecond
}

func filesToNative(files []map[string]interface{}) []interface{} {
	out := make([]interface{}, len(files))
	for i, f := range files {
		out[i] = f
	}
	return out
}

// cmdVersion implements "version", including the optional capability
// negotiation described in §6.
func cmdVersion(req *Request) (map[string]interface{}, error) {
	result := map[string]interface{}{"version": mutagen.Version}
	if spec := mapArg(req.Args, 0); spec != nil {
		required := asStringSlice(spec["required"])
		optional := asStringSlice(spec["optional"])
		capabilities, err := mutagen.CheckCapabilities(required, optional)
		if err != nil {
			return nil, err
		}
		native := make(map[string]interface{}, len(capabilities))
		for name, supported := range capabilities {
			native[name] = supported
		}
		result["capabilities"] = native
	}
	return result, nil
}

func cmdListCapabilities(req *Request) (map[string]interface{}, error) {
	return map[string]interface{}{"capabilities": toInterfaceSlice(mutagen.Capabilities())}, nil
}

func cmdGetSockname(req *Request) (map[string]interface{}, error) {
	return map[string]interface{}{"sockname": req.Service.SockName()}, nil
}

func cmdWatch(req *Request) (map[string]interface{}, error) {
	path, err := stringArg(req.Args, 0)
	if err != nil {
		return nil, err
	}
	watchedRoot, watcher, err := req.Service.Watch(path)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"watch": watchedRoot, "watcher": watcher}, nil
}

func cmdWatchProject(req *Request) (map[string]interface{}, error) {
	path, err := stringArg(req.Args, 0)
	if err != nil {
		return nil, err
	}
	watchedRoot, watcher, relativePath, err := req.Service.WatchProject(path)
	if err != nil {
		return nil, err
	}
	result := map[string]interface{}{"watch": watchedRoot, "watcher": watcher}
	if relativePath != "" {
		result["relative_path"] = relativePath
	}
	return result, nil
}

func cmdWatchDel(req *Request) (map[string]interface{}, error) {
	path, err := stringArg(req.Args, 0)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"root":      path,
		"watch-del": req.Service.WatchDel(path),
	}, nil
}

func cmdWatchDelAll(req *Request) (map[string]interface{}, error) {
	return map[string]interface{}{"roots": toInterfaceSlice(req.Service.WatchDelAll())}, nil
}

func cmdWatchList(req *Request) (map[string]interface{}, error) {
	return map[string]interface{}{"roots": toInterfaceSlice(req.Service.WatchList())}, nil
}

func cmdClock(req *Request) (map[string]interface{}, error) {
	path, err := stringArg(req.Args, 0)
	if err != nil {
		return nil, err
	}
	syncTimeout := durationMS(mapArg(req.Args, 1), "sync_timeout")
	clockString, err := req.Service.Clock(path, syncTimeout)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"root": path, "clock": clockString}, nil
}

func cmdQuery(req *Request) (map[string]interface{}, error) {
	path, err := stringArg(req.Args, 0)
	if err != nil {
		return nil, err
	}
	spec := mapArg(req.Args, 1)
	result, warning, err := req.Service.Query(path, spec)
	if err != nil {
		return nil, err
	}
	response := map[string]interface{}{
		"root":              path,
		"clock":             result.Clock,
		"is_fresh_instance": result.IsFreshInstance,
		"files":             filesToNative(result.Files),
	}
	if warning != "" {
		response["warning"] = warning
	}
	return response, nil
}

func cmdSubscribe(req *Request) (map[string]interface{}, error) {
	path, err := stringArg(req.Args, 0)
	if err != nil {
		return nil, err
	}
	name, err := stringArg(req.Args, 1)
	if err != nil {
		return nil, err
	}
	spec := mapArg(req.Args, 2)
	clockString, err := req.Service.Subscribe(path, name, spec, req.Connection)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"root": path, "subscribe": name, "clock": clockString}, nil
}

func cmdUnsubscribe(req *Request) (map[string]interface{}, error) {
	path, err := stringArg(req.Args, 0)
	if err != nil {
		return nil, err
	}
	name, err := stringArg(req.Args, 1)
	if err != nil {
		return nil, err
	}
	deleted, err := req.Service.Unsubscribe(path, name, req.Connection)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"root": path, "unsubscribe": name, "deleted": deleted}, nil
}

func cmdFlushSubscriptions(req *Request) (map[string]interface{}, error) {
	path, err := stringArg(req.Args, 0)
	if err != nil {
		return nil, err
	}
	spec := mapArg(req.Args, 1)
	syncTimeout := durationMS(spec, "sync_timeout")
	var names []string
	if spec != nil {
		names = asStringSlice(spec["subscriptions"])
	}
	synced, noSyncNeeded, dropped, err := req.Service.FlushSubscriptions(path, names, syncTimeout)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"root":           path,
		"synced":         toInterfaceSlice(synced),
		"no_sync_needed": toInterfaceSlice(noSyncNeeded),
		"dropped":        toInterfaceSlice(dropped),
	}, nil
}

func cmdStateEnter(req *Request) (map[string]interface{}, error) {
	path, err := stringArg(req.Args, 0)
	if err != nil {
		return nil, err
	}
	spec := mapArg(req.Args, 1)
	name, _ := spec["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("state-enter requires a name")
	}
	syncTimeout := durationMS(spec, "sync_timeout")
	if err := req.Service.StateEnter(path, name, spec["metadata"], syncTimeout, req.Connection); err != nil {
		return nil, err
	}
	return map[string]interface{}{"root": path, "state-enter": name}, nil
}

func cmdStateLeave(req *Request) (map[string]interface{}, error) {
	path, err := stringArg(req.Args, 0)
	if err != nil {
		return nil, err
	}
	spec := mapArg(req.Args, 1)
	name, _ := spec["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("state-leave requires a name")
	}
	syncTimeout := durationMS(spec, "sync_timeout")
	if err := req.Service.StateLeave(path, name, spec["metadata"], syncTimeout, req.Connection); err != nil {
		return nil, err
	}
	return map[string]interface{}{"root": path, "state-leave": name}, nil
}

func cmdLogLevel(req *Request) (map[string]interface{}, error) {
	name, err := stringArg(req.Args, 0)
	if err != nil {
		return nil, err
	}
	level, ok := logging.NameToLevel(name)
	if !ok {
		return nil, fmt.Errorf("unknown log level: %s", name)
	}
	req.Connection.SetLogLevel(level)
	req.Service.SetConnLogLevel(req.Connection, level)
	return map[string]interface{}{"log_level": name}, nil
}

func cmdLog(req *Request) (map[string]interface{}, error) {
	name, err := stringArg(req.Args, 0)
	if err != nil {
		return nil, err
	}
	text, err := stringArg(req.Args, 1)
	if err != nil {
		return nil, err
	}
	level, ok := logging.NameToLevel(name)
	if !ok {
		return nil, fmt.Errorf("unknown log level: %s", name)
	}
	req.Service.EmitLog(level, text)
	return map[string]interface{}{"log": true}, nil
}

func cmdGetConfig(req *Request) (map[string]interface{}, error) {
	path, err := stringArg(req.Args, 0)
	if err != nil {
		return nil, err
	}
	config, err := req.Service.GetConfig(path)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"root": path, "config": config}, nil
}

func cmdDebugRecrawl(req *Request) (map[string]interface{}, error) {
	path, err := stringArg(req.Args, 0)
	if err != nil {
		return nil, err
	}
	if err := req.Service.DebugRecrawl(path); err != nil {
		return nil, err
	}
	return map[string]interface{}{"root": path, "recrawl": true}, nil
}

func cmdDebugShowCursors(req *Request) (map[string]interface{}, error) {
	path, err := stringArg(req.Args, 0)
	if err != nil {
		return nil, err
	}
	cursors, err := req.Service.DebugShowCursors(path)
	if err != nil {
		return nil, err
	}
	native := make(map[string]interface{}, len(cursors))
	for name, ticks := range cursors {
		native[name] = ticks
	}
	return map[string]interface{}{"root": path, "cursors": native}, nil
}

func cmdDebugAgeOut(req *Request) (map[string]interface{}, error) {
	path, err := stringArg(req.Args, 0)
	if err != nil {
		return nil, err
	}
	seconds, err := intArg(req.Args, 1)
	if err != nil {
		return nil, err
	}
	if err := req.Service.DebugAgeOut(path, seconds); err != nil {
		return nil, err
	}
	return map[string]interface{}{"root": path, "ageout": true}, nil
}

func cmdDebugPoison(req *Request) (map[string]interface{}, error) {
	path, err := stringArg(req.Args, 0)
	if err != nil {
		return nil, err
	}
	if err := req.Service.DebugPoison(path); err != nil {
		return nil, err
	}
	return map[string]interface{}{"root": path, "poisoned": true}, nil
}

func cmdShutdownServer(req *Request) (map[string]interface{}, error) {
	req.Service.Shutdown()
	return map[string]interface{}{"shutdown-server": true}, nil
}
