// Package queue provides the Redis request queue that feeds planning workers.
//
// Submitters push PlanRequests onto a Redis list, workers pop them, run the
// planner and publish a PlanReply on a per-request pub/sub channel. Requests
// and replies travel as JSON; observations and manifests keep their key
// order on the wire.
//
// # Redis Key Schema
//
//   - <queue> - List of plan requests (LPUSH/BRPOP), default "ffplan:requests"
//   - <queue>:workers - Integer counter of active worker goroutines
//   - ffplan:worker:<id>:health - String with 30s TTL for heartbeat
//   - replies:<requestID> - Pub/Sub channel for the reply
//
// # Usage
//
//	client, err := queue.NewRedisClient(queue.RedisOptions{URL: "redis://localhost:6379"})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	replies, err := client.Subscribe(ctx, req.ID)
//	if err != nil {
//		return err
//	}
//	if err := client.PushRequest(ctx, "ffplan:requests", req); err != nil {
//		return err
//	}
//	reply := <-replies
//
// Subscribe before pushing: pub/sub does not buffer, so a reply published
// before the subscription exists is lost.
package queue
