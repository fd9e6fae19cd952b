package response

// 业务码直接沿用 HTTP 语义
const (
	CodeOK            = 0
	CodeBadRequest    = 400
	CodeUnauthorized  = 401
	CodeForbidden     = 403
	CodeNotFound      = 404
	CodeConflict      = 409
	CodeUnprocessable = 422
	CodeTooMany       = 429
	CodeServerError   = 500
	CodeUnavailable   = 503
	CodeTimeout       = 504
)

var CodeMsgMap = map[int]string{
	CodeOK:            "OK",
	CodeBadRequest:    "Bad Request",
	CodeUnauthorized:  "Unauthorized",
	CodeForbidden:     "Forbidden",
	CodeNotFound:      "Not Found",
	CodeConflict:      "Conflict",
	CodeUnprocessable: "Unprocessable Entity",
	CodeTooMany:       "Too Many Requests",
	CodeServerError:   "Internal Server Error",
	CodeUnavailable:   "Service Unavailable",
	CodeTimeout:       "Gateway Timeout",
}

// Status 业务码对应的 HTTP 状态
func Status(code int) int {
	if code == CodeOK {
		return 200
	}
	return code
}
