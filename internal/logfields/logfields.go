package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRepo       = "repository"
	KeyBranch     = "branch"
	KeyAttemptID  = "attempt_id"
	KeyJobID      = "job_id"
	KeyAction     = "action"
	KeyHash       = "hash"
	KeyFiles      = "files"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Repository(r string) slog.Attr    { return slog.String(KeyRepo, r) }
func Branch(b string) slog.Attr        { return slog.String(KeyBranch, b) }
func AttemptID(id string) slog.Attr    { return slog.String(KeyAttemptID, id) }
func JobID(id string) slog.Attr        { return slog.String(KeyJobID, id) }
func Action(a string) slog.Attr        { return slog.String(KeyAction, a) }
func Hash(h string) slog.Attr          { return slog.String(KeyHash, h) }
func Files(n int) slog.Attr            { return slog.Int(KeyFiles, n) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr    { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(addr string) slog.Attr { return slog.String(KeyRemoteAddr, addr) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
