// Package otpsdk provides the request/response types shared between the
// OTP service's HTTP handlers and its Go client, plus a small SDK client
// for calling the service from other programs.
package otpsdk
