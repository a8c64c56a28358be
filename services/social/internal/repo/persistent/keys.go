package persistent

// Key layout of the store.
//
//	post:<id>                  post record
//	post:<id>:comments         sorted set of comment IDs, score = created ms
//	comment:<id>               comment record
//	user:<email>:profile       profile record
//	username:<name>:profile    profile record, doubles as the username claim
//	user:<email>:settings      settings record
//	user:<name>:posts          sorted set of post IDs, score = created ms
//	user:<email>:following     set of followed usernames
//	user:<email>:followers     set of follower emails
//	user:<email>:notifications sorted set of notification IDs, score = created ms
//	notification:<id>          notification record
//	users                      sorted set of usernames, score = signup ms
//	posts                      sorted set of every post ID, score = created ms
const (
	usersIndexKey = "users"
	postsIndexKey = "posts"
)

func postKey(id string) string              { return "post:" + id }
func postCommentsKey(id string) string      { return "post:" + id + ":comments" }
func commentKey(id string) string           { return "comment:" + id }
func profileByEmailKey(email string) string { return "user:" + email + ":profile" }
func profileByNameKey(name string) string   { return "username:" + name + ":profile" }
func settingsKey(email string) string       { return "user:" + email + ":settings" }
func userPostsKey(name string) string       { return "user:" + name + ":posts" }
func followingKey(email string) string      { return "user:" + email + ":following" }
func followersKey(email string) string      { return "user:" + email + ":followers" }
func notificationsKey(email string) string  { return "user:" + email + ":notifications" }
func notificationKey(id string) string      { return "notification:" + id }
