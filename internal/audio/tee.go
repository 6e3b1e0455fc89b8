package audio

// Tee fans a single producer channel out to multiple consumer channels,
// broadcasting every chunk to all of them. A single goroutine is the
// sole reader of input, avoiding the competing-consumer problem two
// goroutines reading the same channel would create; each output gets
// its own copy of the chunk so one consumer mutating its slice can't
// corrupt another's view of it. Closing input closes every output.
func Tee(input <-chan []int16, outputs ...chan<- []int16) {
	go func() {
		for data := range input {
			dataCopy := make([]int16, len(data))
			copy(dataCopy, data)
			for _, out := range outputs {
				out <- dataCopy
			}
		}
		for _, out := range outputs {
			close(out)
		}
	}()
}
