// Package resolver resolves indirect configuration references such as
// "ssm:/mcp/weather/url" or "cfn:WeatherStack/ServerUrl" into concrete values.
//
// A Chain dispatches on the reference scheme. Default builds a chain whose
// AWS-backed resolvers load the AWS configuration lazily.
package resolver
