// Package auth registers learners, checks their passwords and issues the
// JWT access and refresh tokens that guard every learning endpoint.
package auth
