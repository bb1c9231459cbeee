package pipeline

import "github.com/pkg/errors"

// indexed carries a worker result back with its input position.
type indexed[T any] struct {
	i   int
	val T
}

// parallelMap runs fn for every index on at most workers goroutines and
// returns the results in index order. A panic in fn is turned into an
// error and handed to fail, whose result takes that index's place.
func parallelMap[T any](workers, n int, fn func(i int) T, fail func(i int, err error) T) []T {
	out := make([]T, n)
	if n == 0 {
		return out
	}
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	jobs := make(chan int)
	replies := make(chan indexed[T])
	for w := 0; w < workers; w++ {
		go func() {
			for i := range jobs {
				replies <- indexed[T]{i: i, val: guarded(i, fn, fail)}
			}
		}()
	}
	go func() {
		for i := 0; i < n; i++ {
			jobs <- i
		}
		close(jobs)
	}()
	for k := 0; k < n; k++ {
		r := <-replies
		out[r.i] = r.val
	}
	return out
}

func guarded[T any](i int, fn func(i int) T, fail func(i int, err error) T) (val T) {
	defer func() {
		if r := recover(); r != nil {
			val = fail(i, errors.Errorf("panic: %v", r))
		}
	}()
	return fn(i)
}
