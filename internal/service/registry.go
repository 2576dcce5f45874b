package service

import (
	"sync"
)

// RoomRegistry 管理所有存活中的房間，以房間代碼為鍵，
// 另外維護 transportID 到房間代碼的索引供斷線處理使用。
// 跨房間操作彼此獨立，這裡只保護 map 本身
type RoomRegistry struct {
	mu          sync.RWMutex
	rooms       map[string]*Room
	byTransport map[string]string // transportID -> 房間代碼
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:       make(map[string]*Room),
		byTransport: make(map[string]string),
	}
}

func (r *RoomRegistry) Add(room *Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[room.Code] = room
}

func (r *RoomRegistry) Get(code string) (*Room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[code]
	return room, ok
}

func (r *RoomRegistry) Remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, code)
	for tid, c := range r.byTransport {
		if c == code {
			delete(r.byTransport, tid)
		}
	}
}

// Bind 將一條連線綁定到房間
func (r *RoomRegistry) Bind(transportID, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byTransport[transportID] = code
}

func (r *RoomRegistry) Unbind(transportID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byTransport, transportID)
}

// FindByTransport 以連線查找所屬房間
func (r *RoomRegistry) FindByTransport(transportID string) (*Room, bool) {
	r.mu.RLock()
	code, ok := r.byTransport[transportID]
	if !ok {
		r.mu.RUnlock()
		return nil, false
	}
	room, ok := r.rooms[code]
	r.mu.RUnlock()
	return room, ok
}

func (r *RoomRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// List 回傳當下所有房間
func (r *RoomRegistry) List() []*Room {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rooms := make([]*Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}
