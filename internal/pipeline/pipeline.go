// Package pipeline implements the three-stage streaming batch pipeline —
// reader, worker, writer — that processes a batch of images from standard
// input without buffering the whole batch in memory (spec.md §4.7). Each
// stage is a goroutine; the two bounded queue.Queue instances between them
// provide the backpressure and ordering guarantees the original gets from
// OS threads plus a mutex/condvar queue.
package pipeline

import (
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bdreader/ncnn-upscaler-go/internal/logging"
	"github.com/bdreader/ncnn-upscaler-go/internal/protocol"
	"github.com/bdreader/ncnn-upscaler-go/internal/queue"
	"github.com/bdreader/ncnn-upscaler-go/internal/upserrors"
)

var log = logging.Named("pipeline")

// DefaultQueueCapacity is the default bound on both inter-stage queues
// (spec.md §4.7 "capacity 4 by default").
const DefaultQueueCapacity = 4

// Engine is the slice of engine.Engine the pipeline needs.
type Engine interface {
	ProcessSingle(input []byte) ([]byte, error)
	Cleanup()
}

// Item travels through both queues: an image's original batch position
// paired with its payload (input bytes, then output bytes).
type Item struct {
	Index int
	Bytes []byte
}

// Metrics accumulates the per-batch counters the original logs after the
// pipeline joins (spec.md §10 "Pipeline metrics", supplemented from
// original_source's stdin_mode.cpp).
type Metrics struct {
	Processed   int64
	Errors      int64
	InputBytes  int64
	OutputBytes int64
	TotalNS     int64
}

// Options configures one Run call.
type Options struct {
	QueueCapacity int
	Profiling     bool
}

// Run drives one streaming batch request end to end: reads the batch
// header and echoes the count immediately, then runs the reader, worker,
// and writer stages concurrently until the input queue drains and the
// output queue is fully written.
func Run(r io.Reader, w io.Writer, eng Engine, opts Options) (Metrics, error) {
	capacity := opts.QueueCapacity
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}

	count, err := protocol.ReadStreamingHeader(r)
	if err != nil {
		return Metrics{}, err
	}
	if err := protocol.WriteStreamingCount(w, count); err != nil {
		return Metrics{}, err
	}

	inputQ := queue.New[Item](capacity)
	outputQ := queue.New[Item](capacity)

	var (
		metrics  Metrics
		errMu    sync.Mutex
		firstErr error
		wg       sync.WaitGroup
	)
	setErr := func(err error) {
		errMu.Lock()
		defer errMu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	wg.Add(3)
	go runReader(r, count, inputQ, &metrics, setErr, &wg)
	go runWorker(eng, inputQ, outputQ, opts.Profiling, &metrics, &wg)
	go runWriter(w, outputQ, setErr, &wg)
	wg.Wait()

	log.Infow("streaming batch complete",
		"processed", metrics.Processed,
		"errors", metrics.Errors,
		"input_bytes", metrics.InputBytes,
		"output_bytes", metrics.OutputBytes,
		"total_ns", metrics.TotalNS,
	)

	return metrics, firstErr
}

// runReader parses each image's u32 size + payload and pushes it to
// input_q, closing input_q on normal completion, I/O error, or parse
// error (spec.md §4.7 "Reader").
func runReader(r io.Reader, count uint32, inputQ *queue.Queue[Item], metrics *Metrics, setErr func(error), wg *sync.WaitGroup) {
	defer wg.Done()
	defer inputQ.Close()

	for i := uint32(0); i < count; i++ {
		payload, err := protocol.ReadStreamingItem(r)
		if err != nil {
			setErr(upserrors.Wrapf(err, "reader: image %d", i))
			return
		}
		atomic.AddInt64(&metrics.InputBytes, int64(len(payload)))
		if err := inputQ.Push(Item{Index: int(i), Bytes: payload}); err != nil {
			return
		}
	}
}

// runWorker pops items from input_q, runs the tiling orchestrator via
// eng.ProcessSingle, and pushes successes to output_q. A per-image failure
// increments the error counter and continues; the batch is never aborted.
// When input_q drains it calls eng.Cleanup() exactly once, then closes
// output_q (spec.md §4.7 "Worker").
func runWorker(eng Engine, inputQ, outputQ *queue.Queue[Item], profiling bool, metrics *Metrics, wg *sync.WaitGroup) {
	defer wg.Done()
	defer outputQ.Close()
	defer eng.Cleanup()

	for {
		item, ok := inputQ.Pop()
		if !ok {
			return
		}

		start := time.Now()
		out, err := eng.ProcessSingle(item.Bytes)
		atomic.AddInt64(&metrics.TotalNS, time.Since(start).Nanoseconds())

		if profiling {
			sampleMemStats(item.Index)
		}
		if err != nil {
			atomic.AddInt64(&metrics.Errors, 1)
			log.Warnw("batch item failed, continuing", "index", item.Index, "error", err)
			continue
		}

		atomic.AddInt64(&metrics.Processed, 1)
		atomic.AddInt64(&metrics.OutputBytes, int64(len(out)))
		if err := outputQ.Push(Item{Index: item.Index, Bytes: out}); err != nil {
			return
		}
	}
}

// runWriter pops items from output_q and writes each as u32 size +
// payload, flushing after each write (spec.md §4.7 "Writer"). A failed
// image is simply absent from the stream — the echoed count from Run is
// the only authoritative size the caller gets.
func runWriter(w io.Writer, outputQ *queue.Queue[Item], setErr func(error), wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		item, ok := outputQ.Pop()
		if !ok {
			return
		}
		if err := protocol.WriteStreamingItem(w, item.Bytes); err != nil {
			setErr(upserrors.Wrapf(err, "writer: image %d", item.Index))
			return
		}
	}
}

// sampleMemStats logs current/peak resident memory around a worker
// iteration, the Go analogue of the original's /proc/self/status
// VmRSS/VmHWM sampling under --profiling (spec.md §10).
func sampleMemStats(index int) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	log.Infow("memory sample",
		"index", index,
		"heap_alloc_bytes", m.HeapAlloc,
		"sys_bytes", m.Sys,
	)
}
