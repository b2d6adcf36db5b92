package context

import "context"

type ContextKey string

var (
	RequestIDKey    = ContextKey("X-Request-Id")
	MethodKey       = ContextKey("X-Method")
	RouteKey        = ContextKey("X-Route")
	RemoteIPKey     = ContextKey("X-Remote-Ip")
	SerialNumberKey = ContextKey("X-Serial-Number")
	RevisionKey     = ContextKey("X-Effectivity-Revision")
)

func getString(ctx context.Context, key ContextKey) string {
	value, ok := ctx.Value(key).(string)
	if !ok {
		return ""
	}
	return value
}

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	return getString(ctx, RequestIDKey)
}

func SetMethod(ctx context.Context, method string) context.Context {
	return context.WithValue(ctx, MethodKey, method)
}

func SetRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, RouteKey, route)
}

func SetRemoteIP(ctx context.Context, remoteIP string) context.Context {
	return context.WithValue(ctx, RemoteIPKey, remoteIP)
}

// SetSerialNumber records the aircraft serial a request is about, for log correlation.
func SetSerialNumber(ctx context.Context, serialNumber string) context.Context {
	return context.WithValue(ctx, SerialNumberKey, serialNumber)
}

func SetRevision(ctx context.Context, revision string) context.Context {
	return context.WithValue(ctx, RevisionKey, revision)
}

// Fields returns the request-scoped values that are set, keyed for structured logging.
// Apart from the request id, these values are only ever read back through Fields.
func Fields(ctx context.Context) map[string]any {
	fields := map[string]any{}
	for name, key := range map[string]ContextKey{
		"request_id":    RequestIDKey,
		"method":        MethodKey,
		"route":         RouteKey,
		"remote_ip":     RemoteIPKey,
		"serial_number": SerialNumberKey,
		"revision":      RevisionKey,
	} {
		if v := getString(ctx, key); v != "" {
			fields[name] = v
		}
	}
	return fields
}
