package restyutil

import (
	"strconv"
	"sync/atomic"

	"github.com/go-resty/resty/v2"
)

var dumpCounter uint64

// AttachDump writes every completed exchange of the client to output.
// A nil output makes this a no-op, callers can pass it through unchecked.
func AttachDump(client *resty.Client, output DumpOutput) {
	if output == nil {
		return
	}
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		id := strconv.FormatUint(atomic.AddUint64(&dumpCounter, 1), 10)
		output.Write(id, formatExchange(res))
		return nil
	})
}
