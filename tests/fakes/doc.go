// Package fakes provides shared test doubles for the secret keeper.
//
// Two layers are covered:
//   - SDK-level fakes (FakeKMSClient, FakeDynamoDBClient, FakeSNSClient,
//     FakeCloudWatchClient) that stand in for the AWS clients behind the
//     adapters' narrow client interfaces.
//   - Contract-level fakes (MemoryStore, ReversingCipher, RecordingPublisher,
//     CountingEmitter) implementing the pkg/keeper interfaces directly, for
//     exercising the lifecycle service and reporter without any SDK types.
package fakes
