/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package store

import "strconv"

func revisionString(rev int64) string {
	return strconv.FormatInt(rev, 10)
}

func modRevisionOf(resourceVersion string) (int64, error) {
	if resourceVersion == "" {
		return 0, nil
	}
	return strconv.ParseInt(resourceVersion, 10, 64)
}
