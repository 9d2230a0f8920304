package constants

type ContextKey string

const (
	PoolKey     ContextKey = "pool"
	TxKey       ContextKey = "tx"
	LoggerKey   ContextKey = "logger"
	AuthUserKey ContextKey = "authUser"
	ParamsKey   ContextKey = "params"
)
