package threadpool_test

import (
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/tupyy/hello-web-server/pkg/threadpool"
)

var _ = Describe("ThreadPool", func() {
	var p *threadpool.ThreadPool

	AfterEach(func() {
		if p != nil {
			p.Close()
			p = nil
		}
	})

	Describe("New", func() {
		DescribeTable("should start exactly size workers",
			func(size int) {
				p = threadpool.New(size)
				Expect(p.Size()).To(Equal(size))
				Expect(p.Alive()).To(Equal(size))
			},
			Entry("one worker", 1),
			Entry("two workers", 2),
			Entry("eight workers", 8),
		)

		It("should panic on size zero without starting workers", func() {
			base := runtime.NumGoroutine()
			Expect(func() { threadpool.New(0) }).To(PanicWith(MatchError(threadpool.ErrInvalidSize)))
			Expect(runtime.NumGoroutine()).To(BeNumerically("<=", base))
		})

		It("should panic on a negative size", func() {
			Expect(func() { threadpool.New(-3) }).To(PanicWith(MatchError(threadpool.ErrInvalidSize)))
		})

		It("should panic on an unknown panic policy", func() {
			Expect(func() {
				threadpool.New(1, threadpool.WithPanicPolicy("ignore"))
			}).To(Panic())
		})
	})

	Describe("Submit", func() {
		DescribeTable("should run every job exactly once",
			func(size, jobs int) {
				p = threadpool.New(size)

				counts := make([]atomic.Int32, jobs)
				for i := range jobs {
					p.Submit(func() {
						counts[i].Add(1)
					})
				}
				p.Close()
				p = nil

				for i := range jobs {
					Expect(counts[i].Load()).To(Equal(int32(1)), "job %d", i)
				}
			},
			Entry("fewer jobs than workers", 4, 2),
			Entry("as many jobs as workers", 4, 4),
			Entry("more jobs than workers", 4, 100),
		)

		It("should collect all indices from a pool of size 2", func() {
			p = threadpool.New(2)

			var (
				mu      sync.Mutex
				results []int
			)
			for i := range 5 {
				p.Submit(func() {
					mu.Lock()
					defer mu.Unlock()
					results = append(results, i)
				})
			}
			p.Close()
			p = nil

			Expect(results).To(ConsistOf(0, 1, 2, 3, 4))
		})

		It("should serialize jobs on a single worker", func() {
			p = threadpool.New(1)

			firstStarted := make(chan time.Time, 1)
			secondDone := make(chan time.Time, 1)

			p.Submit(func() {
				firstStarted <- time.Now()
				time.Sleep(50 * time.Millisecond)
			})
			p.Submit(func() {
				secondDone <- time.Now()
			})

			var start, done time.Time
			Eventually(firstStarted, time.Second).Should(Receive(&start))
			Eventually(secondDone, time.Second).Should(Receive(&done))
			Expect(done.Sub(start)).To(BeNumerically(">=", 50*time.Millisecond))
		})

		It("should not drop jobs submitted from concurrent callers", func() {
			p = threadpool.New(3)

			const callers = 10
			const perCaller = 50

			var ran atomic.Int64
			var wg sync.WaitGroup
			for range callers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for range perCaller {
						p.Submit(func() { ran.Add(1) })
					}
				}()
			}
			wg.Wait()
			p.Close()
			p = nil

			Expect(ran.Load()).To(Equal(int64(callers * perCaller)))
		})

		It("should not wait for a free worker", func() {
			p = threadpool.New(1)

			started := make(chan struct{})
			unblock := make(chan struct{})
			p.Submit(func() {
				close(started)
				<-unblock
			})
			Eventually(started, time.Second).Should(BeClosed())

			submitted := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				for range 100 {
					p.Submit(func() {})
				}
				close(submitted)
			}()

			Eventually(submitted, time.Second).Should(BeClosed())
			Expect(p.Stats().Queued).To(Equal(100))
			close(unblock)
		})

		It("should panic on a nil job", func() {
			p = threadpool.New(1)
			Expect(func() { p.Submit(nil) }).To(PanicWith(MatchError(threadpool.ErrNilJob)))
		})

		It("should panic when called after Close", func() {
			p = threadpool.New(2)
			p.Close()

			Expect(func() { p.Submit(func() {}) }).To(PanicWith(MatchError(threadpool.ErrPoolClosed)))
			Expect(func() { p.Execute(func() error { return nil }) }).To(PanicWith(MatchError(threadpool.ErrPoolClosed)))
		})
	})

	Describe("Execute", func() {
		It("should deliver the job result through the future", func() {
			p = threadpool.New(2)

			ok := p.Execute(func() error { return nil })
			boom := errors.New("boom")
			failed := p.Execute(func() error { return boom })

			var res threadpool.Result
			Eventually(ok.C(), time.Second).Should(Receive(&res))
			Expect(res.Err).NotTo(HaveOccurred())
			Expect(res.JobID).To(Equal(ok.ID()))

			res = failed.Wait()
			Expect(res.Err).To(MatchError(boom))
			Expect(res.JobID).To(Equal(failed.ID()))
		})
	})

	Describe("Panic handling", func() {
		It("should keep the worker alive when the policy is contain", func() {
			var reported atomic.Int32
			p = threadpool.New(2, threadpool.WithFailureHandler(func(r threadpool.Result) {
				reported.Add(1)
			}))

			future := p.Execute(func() error { panic("bad job") })

			res := future.Wait()
			Expect(res.Err).To(MatchError(threadpool.ErrJobPanicked))
			Expect(threadpool.IsJobPanicError(res.Err)).To(BeTrue())

			var perr *threadpool.JobPanicError
			Expect(errors.As(res.Err, &perr)).To(BeTrue())
			Expect(perr.Value).To(Equal("bad job"))
			Expect(perr.JobID).To(Equal(future.ID()))

			Consistently(p.Alive, 100*time.Millisecond).Should(Equal(2))
			Eventually(reported.Load).Should(Equal(int32(1)))

			Expect(p.Execute(func() error { return nil }).Wait().Err).NotTo(HaveOccurred())
			Expect(p.Stats().Failed).To(Equal(uint64(1)))
		})

		It("should survive a panicking failure handler", func() {
			core, logs := observer.New(zapcore.DebugLevel)
			p = threadpool.New(1,
				threadpool.WithLogger(zap.New(core).Sugar()),
				threadpool.WithFailureHandler(func(r threadpool.Result) {
					panic("handler broken")
				}),
			)

			Expect(p.Execute(func() error { return errors.New("boom") }).Wait().Err).To(MatchError("boom"))
			Eventually(func() int {
				return logs.FilterMessage("failure handler panicked").Len()
			}, time.Second).Should(Equal(1))

			Expect(p.Execute(func() error { return nil }).Wait().Err).NotTo(HaveOccurred())
			Expect(p.Alive()).To(Equal(1))
		})

		It("should stop the worker and log the capacity loss when the policy is exit-worker", func() {
			core, logs := observer.New(zapcore.DebugLevel)
			p = threadpool.New(2,
				threadpool.WithPanicPolicy(threadpool.PanicPolicyExitWorker),
				threadpool.WithLogger(zap.New(core).Sugar()),
			)

			Expect(p.Execute(func() error { panic("bad job") }).Wait().Err).To(MatchError(threadpool.ErrJobPanicked))
			Eventually(p.Alive, time.Second).Should(Equal(1))
			Expect(logs.FilterMessage("worker exiting after job panic; pool capacity reduced").Len()).To(Equal(1))

			Expect(p.Execute(func() error { return nil }).Wait().Err).NotTo(HaveOccurred())
		})

		It("should fail queued futures when no worker is left", func() {
			core, logs := observer.New(zapcore.DebugLevel)
			p = threadpool.New(1,
				threadpool.WithPanicPolicy(threadpool.PanicPolicyExitWorker),
				threadpool.WithLogger(zap.New(core).Sugar()),
			)

			p.Execute(func() error { panic("bad job") }).Wait()
			Eventually(p.Alive, time.Second).Should(Equal(0))

			orphan := p.Execute(func() error { return nil })
			p.Close()
			p = nil

			Expect(orphan.Wait().Err).To(MatchError(threadpool.ErrPoolClosed))
			Expect(logs.FilterMessage("thread pool shut down with unexecuted jobs").Len()).To(Equal(1))
		})
	})

	Describe("Close", func() {
		It("should complete immediately when no job was submitted", func() {
			p = threadpool.New(4)

			done := make(chan struct{})
			go func() {
				p.Close()
				close(done)
			}()

			Eventually(done, time.Second).Should(BeClosed())
			Expect(p.Alive()).To(Equal(0))
			p = nil
		})

		It("should run every queued job before returning", func() {
			p = threadpool.New(2)

			var ran atomic.Int32
			for range 20 {
				p.Submit(func() {
					time.Sleep(5 * time.Millisecond)
					ran.Add(1)
				})
			}
			p.Close()

			Expect(ran.Load()).To(Equal(int32(20)))
			Expect(p.Alive()).To(Equal(0))
			p = nil
		})

		It("should wait for in-flight work to finish", func() {
			p = threadpool.New(1)

			started := make(chan struct{})
			unblock := make(chan struct{})
			p.Submit(func() {
				close(started)
				<-unblock
			})
			Eventually(started, time.Second).Should(BeClosed())

			closeDone := make(chan struct{})
			go func() {
				p.Close()
				close(closeDone)
			}()

			Consistently(closeDone, 200*time.Millisecond).ShouldNot(BeClosed())
			close(unblock)
			Eventually(closeDone, time.Second).Should(BeClosed())
			p = nil
		})

		It("should be safe to call concurrently and more than once", func() {
			p = threadpool.New(3)
			p.Submit(func() { time.Sleep(20 * time.Millisecond) })

			var wg sync.WaitGroup
			for range 4 {
				wg.Add(1)
				go func() {
					defer GinkgoRecover()
					defer wg.Done()
					p.Close()
					Expect(p.Alive()).To(Equal(0))
				}()
			}
			wg.Wait()
			p.Close()
			p = nil
		})

		It("should not leak goroutines", func() {
			base := runtime.NumGoroutine()
			p = threadpool.New(8)
			for range 100 {
				p.Submit(func() {})
			}
			p.Close()
			p = nil

			Eventually(runtime.NumGoroutine, 2*time.Second, 50*time.Millisecond).Should(BeNumerically("<=", base))
		})
	})

	Describe("Metrics", func() {
		It("should record submitted, completed and failed jobs", func() {
			m := threadpool.NewMetrics("test", prometheus.NewRegistry())
			p = threadpool.New(2, threadpool.WithMetrics(m))
			Expect(testutil.ToFloat64(m.WorkersAlive)).To(Equal(2.0))

			for range 3 {
				p.Submit(func() {})
			}
			p.Execute(func() error { return errors.New("failed") }).Wait()
			p.Execute(func() error { panic("bad job") }).Wait()
			p.Close()
			p = nil

			Expect(testutil.ToFloat64(m.JobsSubmitted)).To(Equal(5.0))
			Expect(testutil.ToFloat64(m.JobsCompleted)).To(Equal(5.0))
			Expect(testutil.ToFloat64(m.JobsFailed)).To(Equal(2.0))
			Expect(testutil.ToFloat64(m.WorkersAlive)).To(Equal(0.0))
		})

		It("should report stats", func() {
			p = threadpool.New(2)
			p.Execute(func() error { return nil }).Wait()

			stats := p.Stats()
			Expect(stats.Size).To(Equal(2))
			Expect(stats.Alive).To(Equal(2))
			Expect(stats.Submitted).To(Equal(uint64(1)))
			Expect(stats.Completed).To(Equal(uint64(1)))
			Expect(stats.Failed).To(BeZero())
		})
	})
})
