// Package hcloud provisions short-lived build servers on Hetzner Cloud.
//
// Hetzner has no spot market, so a server request is fulfilled as soon as
// the server exists. The Provisioner still exposes the same request, await
// and terminate steps as the EC2 provisioner so the build orchestrator can
// treat both providers alike.
//
// Every server carries the ManagedLabel label. Servers left behind by an
// interrupted run can be found with ListManaged and removed with Terminate.
package hcloud
