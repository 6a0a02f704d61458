package storage_test

import (
	"fmt"
	"testing"

	"pkg.world.dev/world-engine/sparse/entity"
	"pkg.world.dev/world-engine/sparse/storage"
	"pkg.world.dev/world-engine/sparse/tracking"
)

var benchSizes = []int{1000, 10000, 100000}

func benchName(size int) string {
	return fmt.Sprintf("%dK", size/1000)
}

func BenchmarkInsert(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(benchName(size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				s := storage.New[Health](storage.WithCapacity(size))
				for j := 0; j < size; j++ {
					s.Insert(entity.New(uint64(j)), Health{j})
				}
			}
		})
	}
}

func BenchmarkGetMutTracked(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(benchName(size), func(b *testing.B) {
			s := storage.New[Health](storage.WithTracking(tracking.All))
			for j := 0; j < size; j++ {
				s.Insert(entity.New(uint64(j)), Health{j})
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				for j := 0; j < size; j++ {
					p, _ := s.GetMut(entity.New(uint64(j)))
					p.Value++
				}
			}
		})
	}
}

func BenchmarkRemoveInsertPacked(b *testing.B) {
	for _, size := range benchSizes {
		b.Run(benchName(size), func(b *testing.B) {
			s := storage.New[Health](storage.WithUpdatePack())
			for j := 0; j < size; j++ {
				s.Insert(entity.New(uint64(j)), Health{j})
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				id := entity.New(uint64(i % size))
				v, _ := s.Remove(id)
				s.Insert(id, v)
				if i%size == 0 {
					s.ClearInsertedAndModifiedRegions()
				}
			}
		})
	}
}
