package utils

import (
	"context"
	"fmt"
)

// MailBox carries point to point messages between NP concurrently running
// partitions. Each ordered (sender, receiver) pair has its own FIFO channel.
type MailBox[T any] struct {
	NP    int
	chans map[[2]int]chan T
}

// NewMailBox sizes every channel to depth messages. A depth of two is enough
// for lock-step exchanges in which every partition posts to all of its
// neighbors before receiving from them.
func NewMailBox[T any](NP int, pairs [][2]int, depth int) *MailBox[T] {
	mb := &MailBox[T]{
		NP:    NP,
		chans: make(map[[2]int]chan T, len(pairs)),
	}
	for _, p := range pairs {
		if p[0] < 0 || p[0] >= NP || p[1] < 0 || p[1] >= NP {
			panic(fmt.Sprintf("mailbox pair %v out of bounds for %d partitions", p, NP))
		}
		if _, present := mb.chans[p]; !present {
			mb.chans[p] = make(chan T, depth)
		}
	}
	return mb
}

func (mb *MailBox[T]) channel(from, to int) chan T {
	ch, present := mb.chans[[2]int{from, to}]
	if !present {
		panic(fmt.Sprintf("no mailbox route from partition %d to %d", from, to))
	}
	return ch
}

// PostMessage queues msg for targetThread, waiting for room in the channel
// until ctx is done
func (mb *MailBox[T]) PostMessage(ctx context.Context, myThread, targetThread int, msg T) error {
	select {
	case mb.channel(myThread, targetThread) <- msg:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("partition %d posting to %d: %w", myThread, targetThread, ctx.Err())
	}
}

// ReceiveMessage blocks until the next message from sourceThread arrives or
// ctx is done
func (mb *MailBox[T]) ReceiveMessage(ctx context.Context, myThread, sourceThread int) (msg T, err error) {
	select {
	case msg = <-mb.channel(sourceThread, myThread):
	case <-ctx.Done():
		err = fmt.Errorf("partition %d waiting on %d: %w", myThread, sourceThread, ctx.Err())
	}
	return
}

// Drain discards undelivered messages, left behind when an exchange is
// abandoned part way. It must not run concurrently with senders.
func (mb *MailBox[T]) Drain() (dropped int) {
	for _, ch := range mb.chans {
		for len(ch) > 0 {
			<-ch
			dropped++
		}
	}
	return
}

type PartitionMap struct {
	MaxIndex       int // MaxIndex is partitioned into ParallelDegree partitions
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	if ParallelDegree < 1 {
		panic(fmt.Errorf("parallel degree must be at least 1, have %d", ParallelDegree))
	}
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

func (pm *PartitionMap) GetBucket(kDim int) (bucketNum, min, max int) {
	_, bucketNum, min, max = pm.getBucketWithTryCount(kDim)
	return
}

func (pm *PartitionMap) getBucketWithTryCount(kDim int) (tryCount, bucketNum, min, max int) {
	if kDim < 0 || kDim >= pm.MaxIndex {
		return 0, -1, 0, 0
	}
	// Initial guess
	bucketNum = int(float64(pm.ParallelDegree*kDim) / float64(pm.MaxIndex))
	for !(pm.Partitions[bucketNum][0] <= kDim && pm.Partitions[bucketNum][1] > kDim) {
		if pm.Partitions[bucketNum][0] > kDim {
			bucketNum--
		} else {
			bucketNum++
		}
		if bucketNum == -1 || bucketNum == pm.ParallelDegree {
			return 0, -1, 0, 0
		}
		tryCount++
	}
	min, max = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) GetBucketRange(bucketNum int) (kMin, kMax int) {
	kMin, kMax = pm.Partitions[bucketNum][0], pm.Partitions[bucketNum][1]
	return
}

func (pm *PartitionMap) GetLocalK(baseK int) (k, Kmax, bn int) {
	var (
		kmin, kmax int
	)
	bn, kmin, kmax = pm.GetBucket(baseK)
	Kmax = kmax - kmin
	k = baseK - kmin
	return
}

func (pm *PartitionMap) GetGlobalK(kLocal, bn int) (kGlobal int) {
	if bn == -1 {
		kGlobal = kLocal
		return
	}
	kGlobal = pm.Partitions[bn][0] + kLocal
	return
}

func (pm *PartitionMap) GetBucketDimension(bn int) (kMax int) {
	if bn == -1 {
		kMax = pm.MaxIndex
		return
	}
	var (
		k1, k2 = pm.GetBucketRange(bn)
	)
	kMax = k2 - k1
	return
}

func (pm *PartitionMap) Split1D(threadNum int) (bucket [2]int) {
	// Splits one dimension into ParallelDegree pieces with a maximum imbalance of one item
	var (
		Npart            = pm.MaxIndex / (pm.ParallelDegree)
		startAdd, endAdd int
		remainder        int
	)
	remainder = pm.MaxIndex % pm.ParallelDegree
	if remainder != 0 { // spread the remainder over the first chunks evenly
		if threadNum+1 > remainder {
			startAdd = remainder
			endAdd = 0
		} else {
			startAdd = threadNum
			endAdd = 1
		}
	}
	bucket[0] = threadNum*Npart + startAdd
	bucket[1] = bucket[0] + Npart + endAdd
	return
}
