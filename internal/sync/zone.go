package sync

// CalculateSyncZone implements spec §4.6 "calculateSyncZone": locate the
// overlapping time window between the video and audio deques and the
// index ranges within each that fall inside it.
func (s *Synchronizer) CalculateSyncZone() SyncZone {
	s.videoMu.Lock()
	video := s.video
	s.videoMu.Unlock()

	s.audioMu.Lock()
	audio := s.audio
	s.audioMu.Unlock()

	if len(video) == 0 || len(audio) == 0 {
		return InvalidSyncZone()
	}

	var framePeriodUs int64
	if s.fpsEstimate > 0 {
		framePeriodUs = int64(1e6 / s.fpsEstimate)
	}

	start := video[0].TimestampUs
	if audio[0].TimestampUs > start {
		start = audio[0].TimestampUs
	}

	videoEnd := video[len(video)-1].TimestampUs + framePeriodUs
	last := audio[len(audio)-1]
	audioEnd := last.TimestampUs + last.DurationUs

	end := videoEnd
	if audioEnd < end {
		end = audioEnd
	}

	if end-start < MinBufferTimeUs {
		return InvalidSyncZone()
	}

	videoStart, videoEndIdx := indexRange(video, start, end)
	audioStart, audioEndIdx := indexRangeAudio(audio, start, end)

	zone := SyncZone{
		StartTimeUs: start, EndTimeUs: end,
		VideoStartIdx: videoStart, VideoEndIdx: videoEndIdx,
		AudioStartIdx: audioStart, AudioEndIdx: audioEndIdx,
	}
	if !zone.Valid() {
		return InvalidSyncZone()
	}
	return zone
}

// indexRange returns the half-open [lo,hi) index range of video entries
// whose timestamp lies in [start,end].
func indexRange(video []VideoFrame, start, end int64) (lo, hi int) {
	lo, hi = -1, -1
	for i, f := range video {
		if f.TimestampUs < start || f.TimestampUs > end {
			continue
		}
		if lo == -1 {
			lo = i
		}
		hi = i + 1
	}
	if lo == -1 {
		return 0, 0
	}
	return lo, hi
}

func indexRangeAudio(audio []AudioChunk, start, end int64) (lo, hi int) {
	lo, hi = -1, -1
	for i, c := range audio {
		if c.TimestampUs < start || c.TimestampUs > end {
			continue
		}
		if lo == -1 {
			lo = i
		}
		hi = i + 1
	}
	if lo == -1 {
		return 0, 0
	}
	return lo, hi
}

// GetVideoFrames returns a snapshot slice of the video entries the zone
// covers. The returned slice shares no backing array with the live
// deque mutations (each VideoFrame's Data was already copied on insert).
func (s *Synchronizer) GetVideoFrames(zone SyncZone) []VideoFrame {
	s.videoMu.Lock()
	defer s.videoMu.Unlock()

	if zone.VideoEndIdx > len(s.video) {
		zone.VideoEndIdx = len(s.video)
	}
	if zone.VideoStartIdx >= zone.VideoEndIdx {
		return nil
	}
	out := make([]VideoFrame, zone.VideoEndIdx-zone.VideoStartIdx)
	copy(out, s.video[zone.VideoStartIdx:zone.VideoEndIdx])
	return out
}

// GetAudioChunks returns a snapshot slice of the audio entries the zone covers.
func (s *Synchronizer) GetAudioChunks(zone SyncZone) []AudioChunk {
	s.audioMu.Lock()
	defer s.audioMu.Unlock()

	if zone.AudioEndIdx > len(s.audio) {
		zone.AudioEndIdx = len(s.audio)
	}
	if zone.AudioStartIdx >= zone.AudioEndIdx {
		return nil
	}
	out := make([]AudioChunk, zone.AudioEndIdx-zone.AudioStartIdx)
	copy(out, s.audio[zone.AudioStartIdx:zone.AudioEndIdx])
	return out
}

// MarkVideoProcessed marks video[startIdx:endIdx] processed.
func (s *Synchronizer) MarkVideoProcessed(startIdx, endIdx int) {
	s.videoMu.Lock()
	defer s.videoMu.Unlock()
	if endIdx > len(s.video) {
		endIdx = len(s.video)
	}
	for i := startIdx; i < endIdx; i++ {
		s.video[i].Processed = true
	}
}

// MarkAudioProcessed marks audio[startIdx:endIdx] processed.
func (s *Synchronizer) MarkAudioProcessed(startIdx, endIdx int) {
	s.audioMu.Lock()
	defer s.audioMu.Unlock()
	if endIdx > len(s.audio) {
		endIdx = len(s.audio)
	}
	for i := startIdx; i < endIdx; i++ {
		s.audio[i].Processed = true
	}
}

// MarkVideoFrameProcessedByTimestamp marks the entry at tsUs processed,
// for callers that sorted their own copy of the zone and lost index identity.
func (s *Synchronizer) MarkVideoFrameProcessedByTimestamp(tsUs int64) {
	s.videoMu.Lock()
	defer s.videoMu.Unlock()
	for i := range s.video {
		if s.video[i].TimestampUs == tsUs {
			s.video[i].Processed = true
			return
		}
	}
}

// MarkAudioChunkProcessedByTimestamp marks the entry at tsUs processed.
func (s *Synchronizer) MarkAudioChunkProcessedByTimestamp(tsUs int64) {
	s.audioMu.Lock()
	defer s.audioMu.Unlock()
	for i := range s.audio {
		if s.audio[i].TimestampUs == tsUs {
			s.audio[i].Processed = true
			return
		}
	}
}

// CleanupOldData removes entries older than now-MaxBufferTimeUs, and
// entries already marked processed that are older than the zone's
// start (spec §4.6).
func (s *Synchronizer) CleanupOldData(nowUs int64, zone SyncZone) {
	cutoff := nowUs - MaxBufferTimeUs

	s.videoMu.Lock()
	kept := s.video[:0]
	for _, f := range s.video {
		if f.TimestampUs < cutoff {
			continue
		}
		if f.Processed && f.TimestampUs < zone.StartTimeUs {
			continue
		}
		kept = append(kept, f)
	}
	s.video = kept
	s.videoMu.Unlock()

	s.audioMu.Lock()
	keptA := s.audio[:0]
	for _, c := range s.audio {
		if c.TimestampUs < cutoff {
			continue
		}
		if c.Processed && c.TimestampUs < zone.StartTimeUs {
			continue
		}
		keptA = append(keptA, c)
	}
	s.audio = keptA
	s.audioMu.Unlock()
}

// Clear drops all buffered data.
func (s *Synchronizer) Clear() {
	s.videoMu.Lock()
	s.video = nil
	s.videoMu.Unlock()

	s.audioMu.Lock()
	s.audio = nil
	s.audioMu.Unlock()
}

// VideoBufferSize returns the current video deque length.
func (s *Synchronizer) VideoBufferSize() int {
	s.videoMu.Lock()
	defer s.videoMu.Unlock()
	return len(s.video)
}

// AudioBufferSize returns the current audio deque length.
func (s *Synchronizer) AudioBufferSize() int {
	s.audioMu.Lock()
	defer s.audioMu.Unlock()
	return len(s.audio)
}

// LatestVideoTimestampUs returns the timestamp of the most recently added video frame.
func (s *Synchronizer) LatestVideoTimestampUs() int64 {
	s.videoMu.Lock()
	defer s.videoMu.Unlock()
	return s.latestVideoTimestampUs
}

// LatestAudioTimestampUs returns the timestamp of the most recently added audio chunk.
func (s *Synchronizer) LatestAudioTimestampUs() int64 {
	s.audioMu.Lock()
	defer s.audioMu.Unlock()
	return s.latestAudioTimestampUs
}
