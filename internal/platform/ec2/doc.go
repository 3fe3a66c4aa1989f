// Package ec2 provisions build instances on the AWS EC2 spot market.
//
// A run submits a one-instance spot request capped at a maximum price,
// waits for fulfillment and for the instance to reach the running state
// using the SDK waiters with explicit maximum wait durations, resolves the
// public IPv4 address and finally terminates the instance. Instances are
// tagged so that leftovers from killed runs can be found and cleaned up.
package ec2
