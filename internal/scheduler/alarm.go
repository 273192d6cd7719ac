package scheduler

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sandeepkv93/dayplan/internal/model"
)

var (
	ErrInvalidTriggerTime = errors.New("scheduler: invalid trigger time")
	ErrAlarmStopped       = errors.New("scheduler: alarm stopped")
)

type BoundaryKind string

const (
	BoundaryStart BoundaryKind = "start"
	BoundaryEnd   BoundaryKind = "end"
)

// BoundaryEvent fires when a scheduled block starts or ends on the wall clock.
type BoundaryEvent struct {
	InstanceID string
	Title      string
	Kind       BoundaryKind
	At         time.Time
}

type queueItem struct {
	event BoundaryEvent
}

type priorityQueue []queueItem

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].event.At.Before(pq[j].event.At)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
}

func (pq *priorityQueue) Push(x any) {
	*pq = append(*pq, x.(queueItem))
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[0 : n-1]
	return item
}

// Alarm delivers block boundary events on C as their time arrives. Delivery
// never blocks: events are dropped when the consumer falls behind.
type Alarm struct {
	mu      sync.Mutex
	queue   priorityQueue
	out     chan BoundaryEvent
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped uint64
}

func NewAlarm(bufferSize int) *Alarm {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Alarm{
		queue:  make(priorityQueue, 0),
		out:    make(chan BoundaryEvent, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (a *Alarm) C() <-chan BoundaryEvent {
	return a.out
}

func (a *Alarm) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return
	}
	a.started = true
	heap.Init(&a.queue)
	go a.loop()
}

func (a *Alarm) Stop() {
	a.mu.Lock()
	if !a.started || a.stopped {
		a.mu.Unlock()
		return
	}
	a.stopped = true
	close(a.stopCh)
	a.mu.Unlock()
	<-a.doneCh
}

func (a *Alarm) Add(ev BoundaryEvent) error {
	if ev.At.IsZero() {
		return ErrInvalidTriggerTime
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return ErrAlarmStopped
	}

	heap.Push(&a.queue, queueItem{event: ev})
	a.signalWakeup()
	return nil
}

// Arm replaces every pending event with the future boundaries of result.
// Block minutes are read as wall-clock times in loc on the result's date.
func (a *Alarm) Arm(result model.ScheduleResult, now time.Time, loc *time.Location) (int, error) {
	events := BoundaryEvents(result, loc)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return 0, ErrAlarmStopped
	}
	a.queue = a.queue[:0]
	for _, ev := range events {
		if !ev.At.After(now) {
			continue
		}
		a.queue = append(a.queue, queueItem{event: ev})
	}
	heap.Init(&a.queue)
	a.signalWakeup()
	return len(a.queue), nil
}

func (a *Alarm) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.queue)
}

func (a *Alarm) Dropped() uint64 {
	return atomic.LoadUint64(&a.dropped)
}

// BoundaryEvents lists start and end events for every block of result.
func BoundaryEvents(result model.ScheduleResult, loc *time.Location) []BoundaryEvent {
	if loc == nil {
		loc = time.Local
	}
	d := result.Date
	midnight := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
	out := make([]BoundaryEvent, 0, 2*len(result.Blocks))
	for _, b := range result.Blocks {
		out = append(out,
			BoundaryEvent{InstanceID: b.InstanceID, Title: b.Title, Kind: BoundaryStart, At: midnight.Add(time.Duration(b.Start) * time.Minute)},
			BoundaryEvent{InstanceID: b.InstanceID, Title: b.Title, Kind: BoundaryEnd, At: midnight.Add(time.Duration(b.End) * time.Minute)},
		)
	}
	return out
}

func (a *Alarm) loop() {
	defer close(a.doneCh)
	defer close(a.out)

	var timer *time.Timer
	for {
		next, hasNext := a.peek()
		if !hasNext {
			select {
			case <-a.wakeup:
				continue
			case <-a.stopCh:
				return
			}
		}

		wait := time.Until(next.At)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			due := a.popDue(time.Now())
			for _, ev := range due {
				select {
				case a.out <- ev:
				default:
					atomic.AddUint64(&a.dropped, 1)
				}
			}
		case <-a.wakeup:
			continue
		case <-a.stopCh:
			if timer != nil {
				stopTimer(timer)
			}
			return
		}
	}
}

func (a *Alarm) signalWakeup() {
	select {
	case a.wakeup <- struct{}{}:
	default:
	}
}

func (a *Alarm) peek() (BoundaryEvent, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.queue) == 0 {
		return BoundaryEvent{}, false
	}
	return a.queue[0].event, true
}

func (a *Alarm) popDue(now time.Time) []BoundaryEvent {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]BoundaryEvent, 0)
	for len(a.queue) > 0 {
		next := a.queue[0].event
		if next.At.After(now) {
			break
		}
		item := heap.Pop(&a.queue).(queueItem)
		out = append(out, item.event)
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
