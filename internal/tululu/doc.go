// Package tululu knows the markup of the tululu.org library: the paginated
// category listing, the book card page and the text download endpoint.
package tululu
