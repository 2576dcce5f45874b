package service

import (
	"sync"
	"sync/atomic"
	"time"
)

// TimerService 每個房間同一時間最多只有一個倒數。
// Start 會先取消既有的倒數，Stop 之後保證不會再有任何回呼觸發
type TimerService struct {
	mu         sync.Mutex
	countdowns map[string]*countdown
}

func NewTimerService() *TimerService {
	return &TimerService{countdowns: make(map[string]*countdown)}
}

type countdown struct {
	stopped atomic.Bool
	done    chan struct{}
}

// cancel 最多生效一次
func (cd *countdown) cancel() {
	if cd.stopped.CompareAndSwap(false, true) {
		close(cd.done)
	}
}

// Start 為房間啟動一個新的倒數，每秒呼叫一次 onTick，歸零時呼叫 onExpire。
// 回呼都帶著這次倒數的把手，呼叫端憑它辨認並丟棄被取代倒數的殘留回呼。
// 既有的倒數會先被取消
func (s *TimerService) Start(roomID string, seconds int, onTick func(cd *countdown, remaining int), onExpire func(cd *countdown)) *countdown {
	cd := &countdown{done: make(chan struct{})}

	s.mu.Lock()
	if old, ok := s.countdowns[roomID]; ok {
		old.cancel()
	}
	s.countdowns[roomID] = cd
	s.mu.Unlock()

	go cd.run(seconds, onTick, onExpire)
	return cd
}

// Stop 取消房間的倒數，沒有倒數時為 no-op
func (s *TimerService) Stop(roomID string) {
	s.mu.Lock()
	cd, ok := s.countdowns[roomID]
	if ok {
		delete(s.countdowns, roomID)
	}
	s.mu.Unlock()

	if ok {
		cd.cancel()
	}
}

func (cd *countdown) run(seconds int, onTick func(cd *countdown, remaining int), onExpire func(cd *countdown)) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	remaining := seconds
	for {
		select {
		case <-cd.done:
			return
		case <-ticker.C:
			// 取消和 tick 同時發生時，取消優先
			if cd.stopped.Load() {
				return
			}
			remaining--
			if remaining <= 0 {
				// CAS 確保到期回呼最多觸發一次，且不會在取消後觸發
				if cd.stopped.CompareAndSwap(false, true) {
					onExpire(cd)
				}
				return
			}
			if onTick != nil {
				onTick(cd, remaining)
			}
		}
	}
}
