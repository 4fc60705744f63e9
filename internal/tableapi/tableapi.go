// Package tableapi is the contract between the table backend and the
// process that drives it: four operations, invoked one at a time.
package tableapi

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/koustreak/table-mysql/internal/logger"
	"github.com/koustreak/table-mysql/internal/service"
)

// Handler implements the four table operations.
type Handler interface {
	Update(ctx context.Context) error
	Check(ctx context.Context, svc service.Service, key string) (bool, error)
	Lookup(ctx context.Context, svc service.Service, key string) (string, bool, error)
	Fetch(ctx context.Context, svc service.Service) (string, bool, error)
}

// maxRequestLen bounds one request line. Longer lines are answered with an
// error and skipped up to the next newline.
const maxRequestLen = 64 << 10

// Serve reads one request per line from r and writes one reply per line to
// w until r is exhausted or ctx is done. Requests are served in order.
//
//	update                   -> ok | error <msg>
//	check <service> <key>    -> found | not-found | error <msg>
//	lookup <service> <key>   -> value <v> | not-found | error <msg>
//	fetch <service>          -> value <v> | not-found | error <msg>
func Serve(ctx context.Context, r io.Reader, w io.Writer, h Handler, log *logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}

	br := bufio.NewReaderSize(r, 4096)
	bw := bufio.NewWriter(w)
	for {
		line, tooLong, rerr := readLine(br)
		if err := ctx.Err(); err != nil {
			return err
		}
		if rerr != nil && rerr != io.EOF {
			return rerr
		}
		if rerr == io.EOF && len(line) == 0 && !tooLong {
			return nil
		}

		var reply string
		if tooLong {
			log.Warnf("request longer than %d bytes", maxRequestLen)
			reply = "error request too long"
		} else {
			reply = dispatch(ctx, h, line)
			log.Debugf("%q -> %q", line, reply)
		}
		if _, err := bw.WriteString(reply + "\n"); err != nil {
			return err
		}
		if err := bw.Flush(); err != nil {
			return err
		}
		if rerr == io.EOF {
			return nil
		}
	}
}

// readLine returns the next line without its terminator. When the line
// exceeds maxRequestLen the rest of it is discarded and tooLong is set.
func readLine(br *bufio.Reader) (line string, tooLong bool, err error) {
	var buf []byte
	for {
		frag, err := br.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(frag) > maxRequestLen+1 {
				tooLong, buf = true, nil
			} else {
				buf = append(buf, frag...)
			}
		}
		if err == bufio.ErrBufferFull {
			continue
		}
		line = strings.TrimSuffix(strings.TrimSuffix(string(buf), "\n"), "\r")
		return line, tooLong, err
	}
}

func dispatch(ctx context.Context, h Handler, line string) string {
	op, rest, _ := strings.Cut(line, " ")
	switch op {
	case "update":
		if err := h.Update(ctx); err != nil {
			return replyErr(err)
		}
		return "ok"

	case "check", "lookup":
		name, key, ok := strings.Cut(rest, " ")
		if !ok {
			return "error missing key"
		}
		svc, err := service.Parse(name)
		if err != nil {
			return replyErr(err)
		}
		if op == "check" {
			found, err := h.Check(ctx, svc, key)
			if err != nil {
				return replyErr(err)
			}
			if !found {
				return "not-found"
			}
			return "found"
		}
		v, found, err := h.Lookup(ctx, svc, key)
		return replyValue(v, found, err)

	case "fetch":
		svc, err := service.Parse(rest)
		if err != nil {
			return replyErr(err)
		}
		v, found, err := h.Fetch(ctx, svc)
		return replyValue(v, found, err)

	default:
		return fmt.Sprintf("error unknown operation %q", op)
	}
}

func replyValue(v string, found bool, err error) string {
	if err != nil {
		return replyErr(err)
	}
	if !found {
		return "not-found"
	}
	return "value " + v
}

func replyErr(err error) string {
	return "error " + strings.ReplaceAll(err.Error(), "\n", " ")
}
