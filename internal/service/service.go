// Package service contains the business logic.
//
// It sits between the dispatcher and repository layers.
// It receives validated requests, performs business operations,
// and calls repository methods to interact with the data.
package service
