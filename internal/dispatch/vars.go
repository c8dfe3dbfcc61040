package dispatch

import (
	"strings"
)

// Variables renders a request as upper-snake environment variables: the
// static args, SLASH_COMMAND, SLASH_PARAMS, SLASH_DISPATCH_ID and one
// SLASH_ARG_<KEY> per named argument. SLASH_PR_HEAD_SHA is set when the pull
// request head is known.
func Variables(req *Request) map[string]string {
	vars := make(map[string]string, 8+len(req.Args.Named))
	for k, v := range req.Args.Named {
		vars["SLASH_ARG_"+upperSnake(k)] = v
	}
	for _, a := range req.StaticArgs() {
		vars[upperSnake(a.Name)] = a.Value
	}
	vars["SLASH_COMMAND"] = string(req.Command)
	vars["SLASH_PARAMS"] = req.Params
	vars["SLASH_DISPATCH_ID"] = req.ID
	if req.PR.HeadSHA != "" {
		vars["SLASH_PR_HEAD_SHA"] = req.PR.HeadSHA
	}
	return vars
}

func upperSnake(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
