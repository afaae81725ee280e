// Package queue provides the Redis job queue used to build graphs
// asynchronously.
//
// A submitter pushes a Job onto a named queue and subscribes to the job's
// result channel. Workers (see package worker) pop jobs, build the graph
// and publish a Result.
//
// # Redis Key Schema
//
//   - huntgraph:<name>:queue - List of jobs (LPUSH/BRPOP)
//   - huntgraph:<name>:health - String with a TTL, refreshed by worker heartbeats
//   - huntgraph:<name>:workers - Integer counter of running worker processes
//   - results:<jobID> - Pub/Sub channel carrying the job's Result
//
// # Usage
//
//	client, err := queue.NewRedisClient(queue.RedisOptions{
//		URL: "redis://localhost:6379",
//	})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	job, err := queue.NewJob(findings, nil)
//	if err != nil {
//		return err
//	}
//	results, err := client.Subscribe(ctx, queue.ResultChannel(job.JobID))
//	if err != nil {
//		return err
//	}
//	if err := client.Push(ctx, "graph", *job); err != nil {
//		return err
//	}
//	result := <-results
package queue
