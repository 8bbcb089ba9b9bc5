// Package dogapi provides a client for the public dog breed catalog at
// https://dog.ceo/api. The catalog knows all dog breeds, their local
// variants (sub-breeds) and pictures of them; every response arrives
// wrapped in a {status, message} envelope which this package unwraps.
package dogapi
