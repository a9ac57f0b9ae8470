package realtime

import (
	"context"
	"sync"
)

// SnapshotFunc mengambil snapshot awal dari sebuah tabel: semua baris
// milik userID yang lolos filter field (equality). Disediakan oleh
// services supaya syncer tidak tahu-menahu soal SQL.
type SnapshotFunc func(ctx context.Context, table string, userID int, filters map[string]string) ([]Record, error)

// Syncer menjaga satu list entitas tetap konsisten dengan store tanpa
// re-fetch: snapshot sekali, lalu fold setiap change event ke list.
//
// Race antara snapshot dan event diselesaikan dengan generation
// fencing: setiap Configure menaikkan
// generation, hasil snapshot dari generation lama dibuang, dan event
// yang datang selagi snapshot masih jalan di-buffer dulu baru
// di-fold setelah snapshot mendarat.
type Syncer struct {
	hub   *Hub
	fetch SnapshotFunc

	mu           sync.Mutex
	gen          uint64
	sub          *Subscription
	data         []Record
	loading      bool
	snapshotDone bool
	pending      []Event
	err          error
}

// NewSyncer membuat syncer di atas hub dengan snapshot fetcher tertentu.
func NewSyncer(hub *Hub, fetch SnapshotFunc) *Syncer {
	return &Syncer{hub: hub, fetch: fetch}
}

// Configure (ulang) mengarahkan syncer ke (table, userID, filters) baru.
// Subscription lama dilepas, subscription baru dibuka, dan snapshot
// di-fetch secara asinkron. Nilai filter kosong atau "all" berarti
// tidak ada filter untuk field tersebut.
func (s *Syncer) Configure(ctx context.Context, table string, userID int, filters map[string]string) {
	active := make(map[string]string)
	for k, v := range filters {
		if v != "" && v != "all" {
			active[k] = v
		}
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.sub != nil {
		s.hub.Unsubscribe(s.sub)
	}
	sub := s.hub.Subscribe(table, userID)
	s.sub = sub
	s.loading = true
	s.snapshotDone = false
	s.pending = nil
	s.err = nil
	s.mu.Unlock()

	go s.consume(gen, sub)
	go s.snapshot(ctx, gen, table, userID, active)
}

func (s *Syncer) consume(gen uint64, sub *Subscription) {
	for ev := range sub.C {
		s.mu.Lock()
		if gen != s.gen {
			// subscription sudah digantikan, kuras sampai channel ditutup
			s.mu.Unlock()
			continue
		}
		if !s.snapshotDone {
			s.pending = append(s.pending, ev)
		} else {
			s.data = apply(s.data, ev)
		}
		s.mu.Unlock()
	}
}

func (s *Syncer) snapshot(ctx context.Context, gen uint64, table string, userID int, filters map[string]string) {
	records, err := s.fetch(ctx, table, userID, filters)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		// hasil snapshot dari konfigurasi lama, buang
		return
	}
	if err != nil {
		s.err = err
	} else {
		s.data = records
		for _, ev := range s.pending {
			s.data = apply(s.data, ev)
		}
	}
	s.pending = nil
	s.loading = false
	s.snapshotDone = true
}

// apply adalah fold murni (list, event) -> list berikutnya.
//   - insert: prepend (list terurut terbaru-dulu); kalau id sudah ada
//     di snapshot, record lama diganti supaya tidak dobel
//   - update: ganti record dengan id yang sama; kalau tidak ada, abaikan
//   - delete: buang record dengan id yang sama
func apply(list []Record, ev Event) []Record {
	switch ev.Type {
	case EventInsert:
		if ev.Record == nil {
			return list
		}
		for i, r := range list {
			if r.RecordID() == ev.RecordID {
				out := make([]Record, len(list))
				copy(out, list)
				out[i] = ev.Record
				return out
			}
		}
		out := make([]Record, 0, len(list)+1)
		out = append(out, ev.Record)
		return append(out, list...)
	case EventUpdate:
		if ev.Record == nil {
			return list
		}
		for i, r := range list {
			if r.RecordID() == ev.RecordID {
				out := make([]Record, len(list))
				copy(out, list)
				out[i] = ev.Record
				return out
			}
		}
		return list
	case EventDelete:
		out := make([]Record, 0, len(list))
		for _, r := range list {
			if r.RecordID() != ev.RecordID {
				out = append(out, r)
			}
		}
		return out
	default:
		return list
	}
}

// Data mengembalikan salinan list saat ini.
func (s *Syncer) Data() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.data))
	copy(out, s.data)
	return out
}

// Loading bernilai true hanya selama snapshot awal di-fetch,
// bukan selama event incremental diterapkan.
func (s *Syncer) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err mengembalikan error fetch terakhir, kalau ada.
func (s *Syncer) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close melepas subscription aktif; tepat satu subscription dilepas
// per aktivasi. Aman dipanggil tanpa Configure sebelumnya.
func (s *Syncer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.sub != nil {
		s.hub.Unsubscribe(s.sub)
		s.sub = nil
	}
}
