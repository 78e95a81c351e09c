package demo

import (
	"fmt"
	"strings"

	"github.com/shhac/mrtea/internal/gitlab"
)

// BaseURL is the fictional instance the demo merge request lives on.
const BaseURL = "https://gitlab.demo.invalid"

const (
	Project = "acme/gateway"
	IID     = 101
)

var mergeRequest = gitlab.MergeRequest{
	Project:      Project,
	IID:          IID,
	Title:        "Add rate limiting middleware",
	WebURL:       BaseURL + "/acme/gateway/-/merge_requests/101",
	Author:       "alice",
	SourceBranch: "feature/rate-limit",
	TargetBranch: "main",
	State:        "opened",
	BaseSHA:      "4c1f0e9a7d2b3c5e6f708192a3b4c5d6e7f80912",
	StartSHA:     "4c1f0e9a7d2b3c5e6f708192a3b4c5d6e7f80912",
	HeadSHA:      "9e8d7c6b5a4f3e2d1c0b9a8f7e6d5c4b3a291807",
}

// hunk builds a hunk with counts derived from the line markers.
func hunk(oldStart, newStart int, section string, lines ...string) string {
	var oldCount, newCount int
	for _, l := range lines {
		switch l[0] {
		case ' ':
			oldCount++
			newCount++
		case '-':
			oldCount++
		case '+':
			newCount++
		}
	}
	header := fmt.Sprintf("@@ -%d,%d +%d,%d @@", oldStart, oldCount, newStart, newCount)
	if section != "" {
		header += " " + section
	}
	return header + "\n" + strings.Join(lines, "\n") + "\n"
}

var fileDiffs = []gitlab.FileDiff{
	{
		OldPath: "internal/middleware/ratelimit.go",
		NewPath: "internal/middleware/ratelimit.go",
		NewFile: true,
		Diff: hunk(0, 1, "",
			"+package middleware",
			"+",
			"+import (",
			"+\t\"net/http\"",
			"+\t\"sync\"",
			"+",
			"+\t\"golang.org/x/time/rate\"",
			"+)",
			"+",
			"+// RateLimiter hands out one token bucket per client address.",
			"+type RateLimiter struct {",
			"+\tmu       sync.Mutex",
			"+\tlimiters map[string]*rate.Limiter",
			"+\trps      rate.Limit",
			"+\tburst    int",
			"+}",
			"+",
			"+func NewRateLimiter(rps float64, burst int) *RateLimiter {",
			"+\treturn &RateLimiter{limiters: map[string]*rate.Limiter{}, rps: rate.Limit(rps), burst: burst}",
			"+}",
			"+",
			"+func (rl *RateLimiter) limiter(addr string) *rate.Limiter {",
			"+\trl.mu.Lock()",
			"+\tdefer rl.mu.Unlock()",
			"+\tl, ok := rl.limiters[addr]",
			"+\tif !ok {",
			"+\t\tl = rate.NewLimiter(rl.rps, rl.burst)",
			"+\t\trl.limiters[addr] = l",
			"+\t}",
			"+\treturn l",
			"+}",
			"+",
			"+func (rl *RateLimiter) Wrap(next http.Handler) http.Handler {",
			"+\treturn http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {",
			"+\t\tif !rl.limiter(r.RemoteAddr).Allow() {",
			"+\t\t\thttp.Error(w, \"too many requests\", http.StatusTooManyRequests)",
			"+\t\t\treturn",
			"+\t\t}",
			"+\t\tnext.ServeHTTP(w, r)",
			"+\t})",
			"+}",
		),
	},
	{
		OldPath: "cmd/gateway/main.go",
		NewPath: "cmd/gateway/main.go",
		Diff: hunk(12, 12, "func main() {",
			" \tcfg := config.MustLoad()",
			" \tmux := http.NewServeMux()",
			" \troutes.Register(mux)",
			"-\tsrv := &http.Server{Addr: cfg.Addr, Handler: mux}",
			"+\tlimiter := middleware.NewRateLimiter(cfg.RPS, cfg.Burst)",
			"+\tsrv := &http.Server{Addr: cfg.Addr, Handler: limiter.Wrap(mux)}",
			" \tlog.Printf(\"listening on %s\", cfg.Addr)",
			" \tlog.Fatal(srv.ListenAndServe())",
			" }",
		),
	},
	{
		OldPath: "internal/config/config.go",
		NewPath: "internal/config/config.go",
		Diff: hunk(8, 8, "type Config struct {",
			" type Config struct {",
			" \tAddr    string `env:\"ADDR\" default:\":8080\"`",
			" \tTimeout int    `env:\"TIMEOUT\" default:\"30\"`",
			"+\tRPS     float64 `env:\"RPS\" default:\"10\"`",
			"+\tBurst   int     `env:\"BURST\" default:\"20\"`",
			" }",
		) + hunk(30, 32, "func MustLoad() Config {",
			" \tif err := envconfig.Process(\"\", &c); err != nil {",
			"-\t\tpanic(err)",
			"+\t\tlog.Fatalf(\"config: %v\", err)",
			" \t}",
			"+\tif c.RPS <= 0 {",
			"+\t\tlog.Fatal(\"config: RPS must be positive\")",
			"+\t}",
			" \treturn c",
		),
	},
	{
		OldPath:     "docs/ratelimit.txt",
		NewPath:     "docs/rate-limiting.md",
		RenamedFile: true,
		Diff: hunk(1, 1, "",
			"-Rate limiting",
			"-=============",
			"+# Rate limiting",
			" ",
			" Requests are limited per client address using a token bucket.",
			"+Configure RPS and BURST to tune the limits.",
		),
	},
	{
		OldPath:     "internal/middleware/legacy_throttle.go",
		NewPath:     "internal/middleware/legacy_throttle.go",
		DeletedFile: true,
		Diff: hunk(1, 0, "",
			"-package middleware",
			"-",
			"-// Throttle sleeps before every request.",
			"-func Throttle(next http.Handler) http.Handler {",
			"-\treturn http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {",
			"-\t\ttime.Sleep(10 * time.Millisecond)",
			"-\t\tnext.ServeHTTP(w, r)",
			"-\t})",
			"-}",
		),
	},
}

var diffNotes = []gitlab.DiffNote{
	{Path: "internal/middleware/ratelimit.go", Line: 25, Author: "bob", Body: "Entries never expire, this map grows forever."},
	{Path: "cmd/gateway/main.go", Line: 15, Author: "carol", Body: "Should health checks bypass the limiter?"},
}
