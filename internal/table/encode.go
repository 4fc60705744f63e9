package table

import (
	"strings"

	"github.com/koustreak/table-mysql/internal/errs"
	"github.com/koustreak/table-mysql/internal/service"
)

// aggregateSep joins the rows of alias and mailaddrmap lookups.
const aggregateSep = ", "

// found reports whether the cursor yields at least one row. Later rows are
// ignored. The cursor is closed.
func found(cur *cursor) (bool, error) {
	defer cur.Close()
	return cur.Next()
}

// encode formats the rows of a lookup for svc. ok is false when the query
// matched nothing. The cursor is closed.
func encode(svc service.Service, cur *cursor) (value string, ok bool, err error) {
	defer cur.Close()

	ok, err = cur.Next()
	if err != nil || !ok {
		return "", false, err
	}

	switch svc {
	case service.Alias, service.MailAddrMap:
		var b strings.Builder
		for ok {
			if b.Len() > 0 {
				b.WriteString(aggregateSep)
			}
			b.WriteString(cur.row[0])
			if b.Len() > MaxValueLen {
				return "", false, errs.New(errs.ErrKindEncoding, "result too large")
			}
			if ok, err = cur.Next(); err != nil {
				return "", false, err
			}
		}
		value = b.String()
	case service.Credentials:
		value = cur.row[0] + ":" + cur.row[1]
	case service.UserInfo:
		value = cur.row[0] + ":" + cur.row[1] + ":" + cur.row[2]
	case service.Domain, service.NetAddr, service.Source, service.MailAddr, service.AddrName:
		value = cur.row[0]
	default:
		return "", false, errs.Newf(errs.ErrKindUnsupported, "unknown service %s", svc)
	}

	if len(value) > MaxValueLen {
		return "", false, errs.New(errs.ErrKindEncoding, "result too large")
	}
	return value, true, nil
}
